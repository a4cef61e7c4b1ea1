package cmd

import (
	"github.com/cottand/semtype/internal/log"
	"github.com/spf13/cobra"
	"log/slog"
)

var logger = log.DefaultLogger.With("section", "cmd")

type logFlags struct {
	level    *int
	sections *[]string
}

func addLogFlags(c *cobra.Command) *logFlags {
	return &logFlags{
		level:    c.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level"),
		sections: c.Flags().StringSlice("log-section", nil, "log sections to print below warn level, eg semtype.memo"),
	}
}

func (f *logFlags) apply() {
	log.SetLevel(slog.Level(*f.level))
	if len(*f.sections) > 0 {
		log.EnableSections(*f.sections...)
	}
}
