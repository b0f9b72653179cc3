package api_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ankiforge/ankiforge/internal/api"
)

var _ = Describe("Wire types", func() {
	Context("RecreateRequest validation", func() {
		var base api.RecreateRequest

		BeforeEach(func() {
			base = api.RecreateRequest{
				CardIDs:      []int64{1, 2, 3},
				CountPerNote: 1,
			}
		})

		It("should accept the model-list variant", func() {
			req := base
			req.ModelNames = []string{"Basic", "Cloze"}
			req.Difficulty = api.DifficultyHard
			Expect(req.Validate()).To(Succeed())
		})

		It("should accept each mode of the per-mode variant", func() {
			req := base
			req.Mode = api.ModeBasic
			req.BasicModel = "Basic"
			Expect(req.Validate()).To(Succeed())

			req = base
			req.Mode = api.ModeCloze
			req.ClozeModel = "Cloze"
			Expect(req.Validate()).To(Succeed())

			req = base
			req.Mode = api.ModeBoth
			req.BasicModel = "Basic"
			req.ClozeModel = "Cloze"
			req.ExtraTag = "regenerated"
			Expect(req.Validate()).To(Succeed())
		})

		It("should require at least one card", func() {
			req := base
			req.CardIDs = nil
			req.Mode = api.ModeBasic
			req.BasicModel = "Basic"
			Expect(req.Validate()).To(MatchError(ContainSubstring("no cards")))
		})

		It("should require a positive count per note", func() {
			req := base
			req.CountPerNote = 0
			req.ModelNames = []string{"Basic"}
			req.Difficulty = api.DifficultyEasy
			Expect(req.Validate()).To(MatchError(ContainSubstring("count per note")))
		})

		It("should reject mixing the two variants", func() {
			req := base
			req.ModelNames = []string{"Basic"}
			req.Difficulty = api.DifficultyEasy
			req.Mode = api.ModeBasic
			req.BasicModel = "Basic"
			Expect(req.Validate()).To(MatchError(ContainSubstring("mutually exclusive")))
		})

		It("should reject an empty selection of variants", func() {
			Expect(base.Validate()).To(MatchError(ContainSubstring("model list or a mode")))
		})

		It("should reject blank model names", func() {
			req := base
			req.ModelNames = []string{"Basic", "  "}
			req.Difficulty = api.DifficultyEasy
			Expect(req.Validate()).To(MatchError(ContainSubstring("blank")))
		})

		It("should insist on a known difficulty for the model list", func() {
			req := base
			req.ModelNames = []string{"Basic"}
			Expect(req.Validate()).To(MatchError(ContainSubstring("difficulty is required")))

			req.Difficulty = "impossible"
			Expect(req.Validate()).To(MatchError(ContainSubstring(`unknown difficulty "impossible"`)))
		})

		It("should insist on per-mode models", func() {
			req := base
			req.Mode = api.ModeBoth
			req.BasicModel = "Basic"
			Expect(req.Validate()).To(MatchError(ContainSubstring("cloze model")))

			req = base
			req.Mode = "fancy"
			Expect(req.Validate()).To(MatchError(ContainSubstring(`unknown mode "fancy"`)))
		})
	})

	Context("ReferencedModels", func() {
		It("should list the model-list variant's names", func() {
			req := api.RecreateRequest{ModelNames: []string{"Basic", "Cloze"}}
			Expect(req.ReferencedModels()).To(Equal([]string{"Basic", "Cloze"}))
		})

		It("should derive names from the active mode", func() {
			req := api.RecreateRequest{Mode: api.ModeBoth, BasicModel: "B", ClozeModel: "C"}
			Expect(req.ReferencedModels()).To(Equal([]string{"B", "C"}))

			req = api.RecreateRequest{Mode: api.ModeCloze, ClozeModel: "C"}
			Expect(req.ReferencedModels()).To(Equal([]string{"C"}))
		})
	})

	Context("request serialization", func() {
		It("should omit the inactive variant and the correlation id", func() {
			deck := "Target"
			req := api.RecreateRequest{
				CardIDs:         []int64{9},
				TargetDeckName:  &deck,
				CountPerNote:    2,
				Mode:            api.ModeBasic,
				BasicModel:      "Basic",
				ClientRequestID: "never-on-the-wire",
			}

			raw, err := json.Marshal(req)
			Expect(err).NotTo(HaveOccurred())

			var body map[string]interface{}
			Expect(json.Unmarshal(raw, &body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("targetDeckName", "Target"))
			Expect(body).To(HaveKey("mode"))
			Expect(body).NotTo(HaveKey("modelNames"))
			Expect(body).NotTo(HaveKey("difficulty"))
			Expect(raw).NotTo(ContainSubstring("never-on-the-wire"))
		})
	})

	Context("NoteType decoding", func() {
		It("should handle a mixed array of strings and objects", func() {
			raw := []byte(`["Basic",{"name":"Cloze","supported":false,"family":"cloze","supportLabel":"needs cloze fields"}]`)

			var types []api.NoteType
			Expect(json.Unmarshal(raw, &types)).To(Succeed())
			Expect(types[0]).To(Equal(api.NoteType{Name: "Basic", Supported: true}))
			Expect(types[1].Supported).To(BeFalse())
			Expect(types[1].SupportLabel).To(Equal("needs cloze fields"))
		})
	})

	Context("RecreateResponse results", func() {
		It("should report missing results as no detail", func() {
			var resp api.RecreateResponse
			Expect(json.Unmarshal([]byte(`{"success":false}`), &resp)).To(Succeed())
			_, ok := resp.DecodedResults()
			Expect(ok).To(BeFalse())
		})

		It("should report a null results field as no detail", func() {
			var resp api.RecreateResponse
			Expect(json.Unmarshal([]byte(`{"success":false,"results":null}`), &resp)).To(Succeed())
			_, ok := resp.DecodedResults()
			Expect(ok).To(BeFalse())
		})

		It("should report a malformed results field as no detail", func() {
			var resp api.RecreateResponse
			Expect(json.Unmarshal([]byte(`{"success":false,"results":{"oops":true}}`), &resp)).To(Succeed())
			_, ok := resp.DecodedResults()
			Expect(ok).To(BeFalse())
		})

		It("should decode a well-formed results array", func() {
			var resp api.RecreateResponse
			raw := `{"success":false,"results":[{"success":false,"stage":"addNote","modelName":"Basic","oldNoteId":7,"error":"duplicate"}]}`
			Expect(json.Unmarshal([]byte(raw), &resp)).To(Succeed())

			results, ok := resp.DecodedResults()
			Expect(ok).To(BeTrue())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Stage).To(Equal("addNote"))
			Expect(results[0].OldNoteID).To(Equal(int64(7)))
		})
	})
})
