package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ankiforge/ankiforge/internal/api"
	"github.com/ankiforge/ankiforge/internal/config"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	writeConfig := func(content string) string {
		path := filepath.Join(dir, "ankiforge.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	Context("loading from a file", func() {
		It("should read every field", func() {
			path := writeConfig(`
backend_url: "http://forge.local:9000"
request_timeout_seconds: 30
page_size: 50
debounce_millis: 200
health_interval_millis: 10000
history_db_path: "/tmp/history.db"
default_deck: "Spanish"
`)
			cfg, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.BackendURL).To(Equal("http://forge.local:9000"))
			Expect(cfg.RequestTimeout()).To(Equal(30 * time.Second))
			Expect(cfg.PageSize).To(Equal(50))
			Expect(cfg.Debounce()).To(Equal(200 * time.Millisecond))
			Expect(cfg.HealthInterval()).To(Equal(10 * time.Second))
			Expect(cfg.HistoryDBPath).To(Equal("/tmp/history.db"))
			Expect(cfg.DefaultDeck).To(Equal("Spanish"))
		})

		It("should fill defaults for omitted fields", func() {
			path := writeConfig(`default_deck: "Math"`)

			cfg, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.BackendURL).To(Equal(api.DefaultBaseURL))
			Expect(cfg.PageSize).To(Equal(25))
			Expect(cfg.Debounce()).To(Equal(450 * time.Millisecond))
			Expect(cfg.HealthInterval()).To(Equal(6 * time.Second))
			Expect(cfg.HistoryDBPath).NotTo(BeEmpty())
		})

		It("should fail on a missing file", func() {
			_, err := config.Load(filepath.Join(dir, "nope.yaml"))
			Expect(err).To(HaveOccurred())
		})

		It("should fail on malformed yaml", func() {
			path := writeConfig("backend_url: [this is not a string")
			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("defaults", func() {
		It("should be complete without any file", func() {
			cfg := config.Default()
			Expect(cfg.BackendURL).To(Equal(api.DefaultBaseURL))
			Expect(cfg.RequestTimeout()).To(Equal(15 * time.Second))
			Expect(cfg.PageSize).To(Equal(25))
		})
	})

	Context("environment overrides", func() {
		It("should overlay recognized variables", func() {
			GinkgoT().Setenv(config.EnvBackendURL, "http://override:8080")
			GinkgoT().Setenv(config.EnvHistoryDBPath, "/var/lib/forge/history.db")
			GinkgoT().Setenv(config.EnvPageSize, "100")

			cfg := config.Default()
			Expect(cfg.ApplyEnv()).To(Succeed())
			Expect(cfg.BackendURL).To(Equal("http://override:8080"))
			Expect(cfg.HistoryDBPath).To(Equal("/var/lib/forge/history.db"))
			Expect(cfg.PageSize).To(Equal(100))
		})

		It("should reject a non-numeric page size", func() {
			GinkgoT().Setenv(config.EnvPageSize, "many")

			cfg := config.Default()
			Expect(cfg.ApplyEnv()).To(MatchError(ContainSubstring("ANKIFORGE_PAGE_SIZE")))
		})

		It("should leave the config alone when nothing is set", func() {
			GinkgoT().Setenv(config.EnvBackendURL, "")
			GinkgoT().Setenv(config.EnvHistoryDBPath, "")
			GinkgoT().Setenv(config.EnvPageSize, "")

			cfg := config.Default()
			before := *cfg
			Expect(cfg.ApplyEnv()).To(Succeed())
			Expect(*cfg).To(Equal(before))
		})
	})
})
