package logger_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("NewLoggerWithWriters", func() {
		It("writes info logs", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Info("hello")

			Expect(buf.String()).To(ContainSubstring("hello"))
		})

		It("filters debug at info level", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Debug("hidden")

			Expect(buf.String()).To(BeEmpty())
		})

		It("emits debug logs when enabled", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(true, &buf)
			l.Debug("visible")

			Expect(buf.String()).To(ContainSubstring("visible"))
		})

		It("fans out to multiple writers", func() {
			var buf1, buf2 bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf1, &buf2)
			l.Info("multi")

			Expect(buf1.String()).To(ContainSubstring("multi"))
			Expect(buf2.String()).To(ContainSubstring("multi"))
		})
	})

	Describe("NewCLIWithWriter", func() {
		It("writes human-readable output", func() {
			var buf bytes.Buffer
			l := logger.NewCLIWithWriter(&buf, false)
			l.Info("serving", "addr", ":7161")

			Expect(buf.String()).To(ContainSubstring("serving"))
			Expect(buf.String()).To(ContainSubstring(":7161"))
		})

		It("respects the debug level", func() {
			var buf bytes.Buffer
			l := logger.NewCLIWithWriter(&buf, false)
			l.Debug("hidden")
			Expect(buf.String()).To(BeEmpty())

			l = logger.NewCLIWithWriter(&buf, true)
			l.Debug("visible")
			Expect(buf.String()).To(ContainSubstring("visible"))
		})
	})
})
