package game

// RunnerStatus represents the current state of the table loop
type RunnerStatus string

const (
	StatusIdle    RunnerStatus = "IDLE"
	StatusRunning RunnerStatus = "RUNNING"
	StatusPaused  RunnerStatus = "PAUSED"
	StatusStopped RunnerStatus = "STOPPED"
)
