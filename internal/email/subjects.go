package email

const (
	subjectContactHotFmt      = "Hot lead: %s"
	subjectStageProgressedFmt = "Pipeline update: %s is now %s"
)
