package models_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ankiforge/ankiforge/pkg/models"
)

var _ = Describe("Card Models", func() {
	Context("CardRow", func() {
		It("should decode a backend row with its wire field names", func() {
			payload := []byte(`{
				"cardId": 1501,
				"noteId": 887,
				"deckName": "Spanish::Verbs",
				"modelName": "Basic",
				"queue": 2,
				"interval": 14,
				"factor": 2500,
				"reps": 9,
				"lapses": 1,
				"flag": 4,
				"question": "<b>hablar</b>",
				"answer": "to speak"
			}`)

			var row models.CardRow
			Expect(json.Unmarshal(payload, &row)).To(Succeed())
			Expect(row.CardID).To(Equal(int64(1501)))
			Expect(row.NoteID).To(Equal(int64(887)))
			Expect(row.DeckName).To(Equal("Spanish::Verbs"))
			Expect(row.ModelName).To(Equal("Basic"))
			Expect(row.Queue).To(Equal(models.QueueReview))
			Expect(row.Interval).To(Equal(14))
			Expect(row.Factor).To(Equal(2500))
			Expect(row.Reps).To(Equal(9))
			Expect(row.Lapses).To(Equal(1))
			Expect(row.Flag).To(Equal(4))
			Expect(row.Question).To(Equal("<b>hablar</b>"))
			Expect(row.Answer).To(Equal("to speak"))
		})
	})

	Context("QueueLabel", func() {
		It("should label every known queue code", func() {
			cases := []struct {
				queue    int
				label    string
				severity models.Severity
			}{
				{models.QueueUserBuried, "buried", models.SeverityWarn},
				{models.QueueSchedBuried, "buried", models.SeverityWarn},
				{models.QueueSuspended, "suspended", models.SeverityError},
				{models.QueueNew, "new", models.SeverityInfo},
				{models.QueueLearning, "learning", models.SeverityWarn},
				{models.QueueReview, "review", models.SeveritySuccess},
				{models.QueueDayLearn, "learning", models.SeverityWarn},
				{models.QueuePreview, "preview", models.SeverityInfo},
			}

			for _, c := range cases {
				label, severity := models.QueueLabel(c.queue)
				Expect(label).To(Equal(c.label), "queue %d", c.queue)
				Expect(severity).To(Equal(c.severity), "queue %d", c.queue)
			}
		})

		It("should degrade unknown codes instead of failing", func() {
			label, severity := models.QueueLabel(42)
			Expect(label).To(Equal("unknown"))
			Expect(severity).To(Equal(models.SeverityInfo))
		})
	})

	Context("FlagLabel", func() {
		It("should map the color flags", func() {
			Expect(models.FlagLabel(0)).To(BeEmpty())
			Expect(models.FlagLabel(1)).To(Equal("red"))
			Expect(models.FlagLabel(4)).To(Equal("blue"))
			Expect(models.FlagLabel(7)).To(Equal("purple"))
		})

		It("should keep out-of-range flags visible", func() {
			Expect(models.FlagLabel(9)).To(Equal("flag-9"))
		})
	})

	Context("EasePercent", func() {
		It("should convert permille to percent", func() {
			Expect(models.EasePercent(2500)).To(Equal("250%"))
			Expect(models.EasePercent(1300)).To(Equal("130%"))
			Expect(models.EasePercent(0)).To(Equal("0%"))
		})
	})
})
