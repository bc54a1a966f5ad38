package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Name      string `json:"name" example:"ledd" doc:"Program name"`
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"a1b2c3d" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Pattern models
type PatternListData struct {
	Patterns []string `json:"patterns" doc:"Sorted pattern names"`
}

type PatternListResponse struct {
	Body PatternListData
}

type PatternPlayRequest struct {
	Name string `path:"name" example:"beacon" doc:"Pattern name"`
	Body struct {
		Retrigger bool `json:"retrigger,omitempty" doc:"Give a playing pattern one more full pass instead of failing"`
	} `required:"false"`
}

type PatternNameInput struct {
	Name string `path:"name" example:"beacon" doc:"Pattern name"`
}

type PatternActionData struct {
	Pattern string `json:"pattern" example:"beacon" doc:"Pattern name"`
	Action  string `json:"action" example:"play" doc:"Action performed"`
}

type PatternActionResponse struct {
	Body PatternActionData
}

// Log models
type LogsRequest struct {
	Lines  int    `query:"lines" minimum:"0" example:"100" doc:"Most recent entries to return; 0 returns everything kept"`
	Module string `query:"module" example:"led" doc:"Only return entries from this module"`
}

type LogEntry struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"led" doc:"Module that logged"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

type LogsData struct {
	Entries []LogEntry `json:"entries"`
}

type LogsResponse struct {
	Body LogsData
}

type LogLevel struct {
	Module string `json:"module" example:"led" doc:"Module name, or global"`
	Level  string `json:"level" example:"debug" doc:"Log level"`
}

type LogLevelsData struct {
	Levels []LogLevel `json:"levels"`
}

type LogLevelsResponse struct {
	Body LogLevelsData
}

type SetLogLevelRequest struct {
	Module string `path:"module" example:"led" doc:"Module name, or global"`
	Body   struct {
		Level string `json:"level" enum:"debug,info,warn,error" example:"debug" doc:"New log level"`
	}
}

type LogLevelResponse struct {
	Body LogLevel
}
