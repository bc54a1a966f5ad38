package models

// LED listing models
type LEDEntry struct {
	Name   string `json:"name" example:"status" doc:"LED, alias or ALL"`
	Colour string `json:"colour,omitempty" example:"GREEN" doc:"LED colour; empty for aliases and ALL"`
	Kind   string `json:"kind" example:"led" enum:"led,alias,all" doc:"What the name refers to"`
}

type LEDListData struct {
	LEDs []LEDEntry `json:"leds" doc:"Physical LEDs, then aliases, then ALL"`
}

type LEDListResponse struct {
	Body LEDListData
}

type StatesData struct {
	States []string `json:"states" doc:"States the hardware shows natively"`
}

type StatesResponse struct {
	Body StatesData
}

// LED query models
type LEDGetRequestData struct {
	LEDs []string `json:"leds" minItems:"1" doc:"LEDs, aliases or ALL to query"`
}

type LEDGetRequest struct {
	Body LEDGetRequestData
}

type LEDNameInput struct {
	Name string `path:"name" example:"status" doc:"LED, alias or ALL"`
}

type LEDStateRecord struct {
	Name     string `json:"name" example:"status" doc:"Physical LED, or the requested target on failure"`
	Success  bool   `json:"success" doc:"Whether the LED could be read"`
	State    string `json:"state,omitempty" example:"on" doc:"Current state: off, on, flash or fast-flash"`
	LockID   string `json:"lock_id,omitempty" example:"diagnostics" doc:"Lock token holding the LED"`
	Priority string `json:"priority,omitempty" example:"normal" doc:"Priority that owns the LED"`
	Error    string `json:"error,omitempty" example:"unknown LED" doc:"Failure reason"`
}

type LEDStatesData struct {
	LEDs []LEDStateRecord `json:"leds"`
}

type LEDStatesResponse struct {
	Body LEDStatesData
}

// LED set models
type LEDSetData struct {
	Name        string `json:"name" example:"status" doc:"LED, alias or ALL"`
	State       string `json:"state" example:"on" doc:"off, on, flash or fast-flash"`
	Priority    string `json:"priority,omitempty" example:"normal" doc:"critical, locked, alternate or normal (default)"`
	LockID      string `json:"lock_id,omitempty" example:"diagnostics" doc:"Lock token; required to change a locked LED"`
	FlashType   string `json:"flash_type,omitempty" example:"one_shot" doc:"none, one_shot, flash_type_slow or flash_type_fast"`
	FlashTimeMs int    `json:"flash_time_ms,omitempty" minimum:"0" example:"100" doc:"One-shot interval or flashing time in milliseconds"`
	Forever     bool   `json:"forever,omitempty" doc:"Keep flashing until told otherwise"`
}

type LEDSetRequestData struct {
	LEDs []LEDSetData `json:"leds" minItems:"1" doc:"State changes to apply in order"`
}

type LEDSetRequest struct {
	Body LEDSetRequestData
}

type LEDResultRecord struct {
	Name    string `json:"name" example:"status" doc:"Physical LED, or the requested target on failure"`
	Success bool   `json:"success" doc:"Whether the change was applied"`
	State   string `json:"state,omitempty" example:"on" doc:"State set on the LED"`
	LockID  string `json:"lock_id,omitempty" example:"diagnostics" doc:"Lock token holding the LED after the call"`
	Error   string `json:"error,omitempty" example:"incorrect lock ID" doc:"Failure reason"`
}

type LEDResultsData struct {
	LEDs []LEDResultRecord `json:"leds"`
}

type LEDResultsResponse struct {
	Body LEDResultsData
}

// Priority activation models
type ActivationData struct {
	Priority string `json:"priority" example:"alternate" doc:"Priority to turn on or off"`
	LockID   string `json:"lock_id,omitempty" example:"diagnostics" doc:"Lock token; required for the locked priority"`
}

type ActivationRequest struct {
	Name string `path:"name" example:"status" doc:"LED, alias or ALL"`
	Body ActivationData
}
