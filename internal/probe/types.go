package probe

// AgentMode names the privilege-escalation channel the host can drive
// automatically, if any.
type AgentMode string

const (
	AgentModePkexec          AgentMode = "pkexec"
	AgentModeSudoNonInteractive AgentMode = "sudo-noninteractive"
	AgentModeSudoTerminal     AgentMode = "sudo-terminal"
	AgentModeNone             AgentMode = "none"
)

// AgentLevel summarizes how much the host can do without a human in the
// loop.
type AgentLevel string

const (
	AgentLevelAutomated AgentLevel = "automated"
	AgentLevelAssisted  AgentLevel = "assisted"
	AgentLevelBlocked   AgentLevel = "blocked"
)

// Capabilities reports which control tools the privileged helper observed on
// the target system.
type Capabilities struct {
	Systemctl bool `json:"systemctl"`
	Service   bool `json:"service"`
	Curl      bool `json:"curl"`
}

// HelperProbe is the result of probing the privileged helper script and the
// surrounding escalation paths (pkexec, sudo).
type HelperProbe struct {
	Path                        string
	Reason                      string
	AgentMode                   AgentMode
	AgentLevel                  AgentLevel
	Capabilities                *Capabilities
	Configured                  bool
	Available                   bool
	StatusProbeOk               bool
	PkexecAvailable             bool
	DesktopPromptAvailable      bool
	SudoAvailable               bool
	SudoNonInteractiveAvailable bool
	SudoRequiresTty             bool
	SudoPolicyDenied            bool
	PrivilegeEscalationReady    bool
	AgentReady                  bool
}

// BinaryResolution is the result of resolving a binary by name on PATH.
type BinaryResolution struct {
	Path  string
	Found bool
}

// SudoProbe is the result of ProbeSudoNonInteractive.
type SudoProbe struct {
	NonInteractiveAvailable bool
	RequiresTty             bool
	PolicyDenied            bool
}
