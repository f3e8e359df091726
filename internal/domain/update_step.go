package domain

type UpdateStep string

const (
	UpdateStepCheck    UpdateStep = "check"
	UpdateStepDownload UpdateStep = "download"
	UpdateStepUnzip    UpdateStep = "unzip"
	UpdateStepCopy     UpdateStep = "copy"
	UpdateStepDelete   UpdateStep = "delete"
	UpdateStepMigrate  UpdateStep = "migrate"
	UpdateStepFinish   UpdateStep = "finish"
)

// UpdateFinished is emitted once the new version has been recorded.
type UpdateFinished struct {
	Installed string `json:"installed"`
	Version   string `json:"version"`
}
