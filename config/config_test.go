package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/wordcount/config"
)

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	BeforeEach(func() {
		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tempDir)
	})

	writeConfig := func(content string) {
		err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				writeConfig(`
server:
  address: "127.0.0.1:9090"
  environment: "prod"
  write_timeout: "45s"

logging:
  level: "debug"

upload:
  max_files: 3
  max_file_bytes: 1024

processing:
  max_concurrency: 2
  file_read_timeout: "2s"

rate_limit:
  enabled: true
  rps: 5
  burst: 10
`)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse server settings", func() {
				cfg, _ := config.Load()
				Expect(cfg.Server.Address).To(Equal("127.0.0.1:9090"))
				Expect(cfg.Server.Environment).To(Equal(config.EnvProd))
				Expect(cfg.Server.WriteTimeoutDuration()).To(Equal(45 * time.Second))
				Expect(cfg.Server.ReadTimeoutDuration()).To(Equal(15 * time.Second))
			})

			It("should parse upload and processing limits", func() {
				cfg, _ := config.Load()
				Expect(cfg.Upload.MaxFiles).To(Equal(3))
				Expect(cfg.Upload.MaxFileBytes).To(Equal(int64(1024)))
				Expect(cfg.Upload.MaxRequestBytes).To(Equal(int64(32 << 20)))
				Expect(cfg.Processing.MaxConcurrency).To(Equal(2))
				Expect(cfg.Processing.FileReadTimeoutDuration()).To(Equal(2 * time.Second))
			})

			It("should parse rate limiting", func() {
				cfg, _ := config.Load()
				Expect(cfg.RateLimit.Enabled).To(BeTrue())
				Expect(cfg.RateLimit.RPS).To(Equal(5.0))
				Expect(cfg.RateLimit.Burst).To(Equal(10))
				Expect(cfg.RateLimit.IdleTTLDuration()).To(Equal(15 * time.Minute))
			})
		})

		Context("with config file under ./config", func() {
			BeforeEach(func() {
				Expect(os.Mkdir(filepath.Join(tempDir, "config"), 0755)).To(Succeed())
				err := os.WriteFile(filepath.Join(tempDir, "config", "config.yaml"), []byte("logging:\n  level: warn\n"), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should pick it up", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelWarn))
			})
		})

		Context("without a config file", func() {
			It("should use defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":8080"))
				Expect(cfg.Server.Environment).To(Equal(config.EnvDev))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelInfo))
				Expect(cfg.Upload.MaxFiles).To(Equal(64))
				Expect(cfg.Processing.MaxConcurrency).To(Equal(8))
				Expect(cfg.Processing.FileReadTimeoutDuration()).To(BeZero())
				Expect(cfg.RateLimit.Enabled).To(BeFalse())
				Expect(cfg.Metrics.Enabled).To(BeTrue())
				Expect(cfg.Metrics.BufferSize).To(Equal(1024))
			})
		})

		Context("with environment variables", func() {
			BeforeEach(func() {
				os.Setenv("WORDCOUNT_SERVER_ADDRESS", ":7070")
				os.Setenv("WORDCOUNT_UPLOAD_MAX_FILES", "5")
			})

			AfterEach(func() {
				os.Unsetenv("WORDCOUNT_SERVER_ADDRESS")
				os.Unsetenv("WORDCOUNT_UPLOAD_MAX_FILES")
			})

			It("should override defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":7070"))
				Expect(cfg.Upload.MaxFiles).To(Equal(5))
			})
		})

		Context("with invalid values", func() {
			It("should reject an unknown environment", func() {
				writeConfig("server:\n  environment: \"qa\"\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a bad duration", func() {
				writeConfig("processing:\n  file_read_timeout: \"soon\"\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject malformed yaml", func() {
				writeConfig("server: [unterminated\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		var cfg config.Config

		BeforeEach(func() {
			cfg = config.Config{
				Server: config.ServerConfig{
					Address:         ":8080",
					Environment:     config.EnvDev,
					ReadTimeout:     "1s",
					WriteTimeout:    "1s",
					IdleTimeout:     "1s",
					ShutdownTimeout: "1s",
				},
				Logging:    config.LoggingConfig{Level: config.LogLevelInfo},
				Upload:     config.UploadConfig{MaxRequestBytes: 1024, MaxMemoryBytes: 512},
				Processing: config.ProcessingConfig{FileReadTimeout: "0s"},
			}
		})

		It("should accept a minimal config", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should reject an invalid log level", func() {
			cfg.Logging.Level = "loud"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject an invalid address", func() {
			cfg.Server.Address = "invalid:host:port"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject a negative duration", func() {
			cfg.Server.IdleTimeout = "-1s"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject a zero request limit", func() {
			cfg.Upload.MaxRequestBytes = 0
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject negative concurrency", func() {
			cfg.Processing.MaxConcurrency = -1
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should ignore rate limit settings when disabled", func() {
			cfg.RateLimit = config.RateLimitConfig{Enabled: false, RPS: -1}
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should validate rate limit settings when enabled", func() {
			cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0, Burst: 1, IdleTTL: "1m"}
			Expect(cfg.Validate()).NotTo(Succeed())

			cfg.RateLimit.RPS = 2
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should reject a zero idle TTL when rate limiting is enabled", func() {
			cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 2, Burst: 1, IdleTTL: "0s"}
			Expect(cfg.Validate()).NotTo(Succeed())

			cfg.RateLimit.IdleTTL = "30s"
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should require a buffer when metrics are enabled", func() {
			cfg.Metrics = config.MetricsConfig{Enabled: true}
			Expect(cfg.Validate()).NotTo(Succeed())
		})
	})

	Describe("ValidateHostPort", func() {
		DescribeTable("addresses",
			func(addr string, valid bool) {
				err := config.ValidateHostPort(addr)
				if valid {
					Expect(err).NotTo(HaveOccurred())
				} else {
					Expect(err).To(HaveOccurred())
				}
			},
			Entry("port only", ":8080", true),
			Entry("hostname", "localhost:8080", true),
			Entry("ip", "127.0.0.1:8080", true),
			Entry("missing port", "localhost", false),
			Entry("empty port", "localhost:", false),
			Entry("too many colons", "invalid:host:port", false),
		)
	})
})
