package models

import "fmt"

// Scheduler queue codes as the backend reports them. They mirror Anki's
// internal card queues, including the negative buried/suspended states.
const (
	QueueUserBuried  = -3
	QueueSchedBuried = -2
	QueueSuspended   = -1
	QueueNew         = 0
	QueueLearning    = 1
	QueueReview      = 2
	QueueDayLearn    = 3
	QueuePreview     = 4
)

// Severity is the display emphasis attached to a card state label. The
// values match the session log levels so frontends can reuse one palette.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
)

// CardRow is one row of browse results. Question and Answer hold the
// backend's rendered card HTML untouched; Factor is the ease in permille.
type CardRow struct {
	CardID    int64  `json:"cardId"`
	NoteID    int64  `json:"noteId"`
	DeckName  string `json:"deckName"`
	ModelName string `json:"modelName"`
	Queue     int    `json:"queue"`
	Interval  int    `json:"interval"`
	Factor    int    `json:"factor"`
	Reps      int    `json:"reps"`
	Lapses    int    `json:"lapses"`
	Flag      int    `json:"flag"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// QueueLabel maps a queue code onto a human label and its severity.
// Unrecognized codes degrade to an "unknown" label instead of failing.
func QueueLabel(queue int) (string, Severity) {
	switch queue {
	case QueueUserBuried, QueueSchedBuried:
		return "buried", SeverityWarn
	case QueueSuspended:
		return "suspended", SeverityError
	case QueueNew:
		return "new", SeverityInfo
	case QueueLearning, QueueDayLearn:
		return "learning", SeverityWarn
	case QueueReview:
		return "review", SeveritySuccess
	case QueuePreview:
		return "preview", SeverityInfo
	default:
		return "unknown", SeverityInfo
	}
}

// FlagLabel maps Anki's 0-7 flag codes to their color names. Zero means
// no flag and yields an empty string.
func FlagLabel(flag int) string {
	switch flag {
	case 0:
		return ""
	case 1:
		return "red"
	case 2:
		return "orange"
	case 3:
		return "green"
	case 4:
		return "blue"
	case 5:
		return "pink"
	case 6:
		return "turquoise"
	case 7:
		return "purple"
	default:
		return fmt.Sprintf("flag-%d", flag)
	}
}

// EasePercent renders a permille ease factor as a percent string,
// so 2500 becomes "250%".
func EasePercent(factor int) string {
	return fmt.Sprintf("%d%%", factor/10)
}
