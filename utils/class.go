package utils

// Action Cache Record
type ActionSolution struct {
	XsidScript   string   `json:"xsid_script"`
	ActionScript string   `json:"action_script"`
	Actions      []string `json:"actions"`

	// Set when the xsid chunk was not found before the sentinel and the
	// first chunk of the bundle was taken instead. Never persisted.
	Fallback bool `json:"-"`
}

// Challenge Result
type ChallengeData struct {
	Token    string `json:"token"`
	Variant  int    `json:"variant"`
	Anim     string `json:"anim"`
	PathData string `json:"path_data"`
	Numbers  []int  `json:"numbers,omitempty"`
	Location string `json:"location,omitempty"`
}

// Route Requests
type ChallengeRequest struct {
	HTML         string `json:"html"`
	Verification string `json:"verification"`
	ScriptID     string `json:"script_id"`
}

type ActionRequest struct {
	TaskID  string   `json:"task_id"`
	Scripts []string `json:"scripts"`
}
