package core

// CommandType is the discriminator of an incoming request.
type CommandType string

const (
	CmdGetLights      CommandType = "get_lights"
	CmdGetGroups      CommandType = "get_groups"
	CmdGetScenes      CommandType = "get_scenes"
	CmdSetColor       CommandType = "set_color"
	CmdSetBrightness  CommandType = "set_brightness"
	CmdSetEffect      CommandType = "set_effect"
	CmdSetTemperature CommandType = "set_temperature"
	CmdActivateScene  CommandType = "activate_scene"
	CmdSetGroupState  CommandType = "set_group_state"
	CmdTurnOn         CommandType = "turn_on"
	CmdTurnOff        CommandType = "turn_off"
	CmdFlash          CommandType = "flash"
	CmdDisco          CommandType = "disco"
	CmdStopEffect     CommandType = "stop_effect"
	CmdRefreshLights  CommandType = "refresh_lights"

	CmdGetPatterns    CommandType = "get_patterns"
	CmdRunPattern     CommandType = "run_pattern"
	CmdStopPattern    CommandType = "stop_pattern"
	CmdGetPatternCode CommandType = "get_pattern_code"
	CmdSavePattern    CommandType = "save_pattern"
	CmdDeletePattern  CommandType = "delete_pattern"

	CmdGetSchedules   CommandType = "get_schedules"
	CmdAddSchedule    CommandType = "add_schedule"
	CmdRemoveSchedule CommandType = "remove_schedule"
)

// Command is the envelope for a decoded client request. Only Type is always
// present; the remaining fields are populated per command type. Brightness and
// Temperature are pointers because zero is a meaningful value for neither
// presence check nor default.
type Command struct {
	Type CommandType `json:"type"`

	LightID        string `json:"lightId,omitempty"`
	Group          string `json:"group,omitempty"`
	Color          []int  `json:"color,omitempty"`
	Brightness     *int   `json:"brightness,omitempty"`
	EffectType     string `json:"effectType,omitempty"`
	Temperature    *int   `json:"temperature,omitempty"`
	Scene          string `json:"scene,omitempty"`
	Times          int    `json:"times,omitempty"`
	Duration       int    `json:"duration,omitempty"` // seconds
	Speed          int    `json:"speed,omitempty"`    // milliseconds
	TransitionTime *int   `json:"transitionTime,omitempty"`

	// Pattern and schedule management.
	Name       string `json:"name,omitempty"`
	Code       string `json:"code,omitempty"`
	Spec       string `json:"spec,omitempty"`
	Command    string `json:"command,omitempty"`
	ScheduleID int    `json:"id,omitempty"`
}

// CommandChannel carries commands raised outside a client session
// (scheduler entries) into the agent's dispatch loop.
type CommandChannel chan Command
