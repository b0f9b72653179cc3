// Package history persists recreate runs to a local sqlite database so
// outcomes survive the session that produced them.
package history

// Run is one recorded recreate invocation. Wire-level failure runs are
// recorded too; ErrorHead keeps a short slice of what went wrong.
type Run struct {
	RunID           string `gorm:"column:run_id;primaryKey"`
	RequestID       string `gorm:"column:request_id;not null;default:''"`
	StartedAt       int64  `gorm:"column:started_at;not null;default:0;index:idx_recreate_runs_started_at"`
	CardCount       int    `gorm:"column:card_count;not null;default:0"`
	TargetDeck      string `gorm:"column:target_deck;not null;default:''"`
	Variant         string `gorm:"column:variant;not null;default:''"`
	ModelSummary    string `gorm:"column:model_summary;not null;default:''"`
	CountPerNote    int    `gorm:"column:count_per_note;not null;default:0"`
	SuspendOriginal bool   `gorm:"column:suspend_original;not null;default:false"`
	Outcome         string `gorm:"column:outcome;not null;default:''"`
	Created         int    `gorm:"column:created_total;not null;default:0"`
	Failed          int    `gorm:"column:failed_total;not null;default:0"`
	SelectedNotes   int    `gorm:"column:selected_notes;not null;default:0"`
	SuspendedCards  int    `gorm:"column:suspended_cards;not null;default:0"`
	ErrorHead       string `gorm:"column:error_head;not null;default:''"`
}

func (Run) TableName() string {
	return "recreate_runs"
}
