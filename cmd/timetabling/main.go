// Package main provides the timetabling binary: it runs a complete
// negotiation over the given teacher and room inputs and can verify the
// schedules a previous run exported.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Francoo86/Implementaciones-MAS/internal/config"
	"github.com/Francoo86/Implementaciones-MAS/internal/coordinator"
	"github.com/Francoo86/Implementaciones-MAS/internal/export"
	"github.com/Francoo86/Implementaciones-MAS/internal/input"
	"github.com/Francoo86/Implementaciones-MAS/internal/protocol"
	"github.com/Francoo86/Implementaciones-MAS/internal/schedule"
	"github.com/Francoo86/Implementaciones-MAS/internal/telemetry"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "timetabling",
		Short: "Decentralized weekly timetabling through agent negotiation",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(runCmd(), verifyCmd())
	return cmd
}

func configureLogging(level string) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func runCmd() *cobra.Command {
	var (
		configPath   string
		teachersPath string
		roomsPath    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one negotiation over the given teachers and rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, teachersPath, roomsPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML); defaults apply when empty")
	cmd.Flags().StringVar(&teachersPath, "teachers", "teachers.json", "Teacher input file (JSON)")
	cmd.Flags().StringVar(&roomsPath, "rooms", "rooms.json", "Room input file (JSON)")
	return cmd
}

func run(configPath, teachersPath, roomsPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	teachers, err := input.LoadTeachers(teachersPath)
	if err != nil {
		return fmt.Errorf("load teachers: %w", err)
	}
	rooms, err := input.LoadRooms(roomsPath)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}

	memory := export.NewMemorySink()
	sink := export.Tee{
		export.NewJSONSink(cfg.Export.Dir, cfg.Export.TeachersFile, cfg.Export.RoomsFile),
		memory,
	}

	newRecorder, closeTelemetry, err := buildTelemetry(cfg.Telemetry)
	if err != nil {
		return err
	}
	defer closeTelemetry()

	runner, err := coordinator.New(coordinator.Dependencies{
		Registry:    protocol.NewRegistry(),
		Sink:        sink,
		Logger:      slog.Default(),
		Config:      cfg,
		NewRecorder: newRecorder,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runner.Run(ctx, teachers, rooms); err != nil {
		return fmt.Errorf("run negotiation: %w", err)
	}

	summarize(memory)

	roomMaps, teacherMaps := memory.Maps()
	if err := schedule.Verify(roomMaps, teacherMaps); err != nil {
		return fmt.Errorf("schedule verification: %w", err)
	}
	slog.Info("schedules verified consistent",
		"output_dir", cfg.Export.Dir)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFromFile(path)
}

// buildTelemetry assembles the per-agent recorder factory: RTT CSV logs when
// enabled, plus shared Prometheus collectors when a listen address is set.
func buildTelemetry(cfg config.TelemetryConfig) (func(string) telemetry.Recorder, func(), error) {
	var metrics *telemetry.Metrics
	if cfg.MetricsListen != "" {
		var err error
		metrics, err = telemetry.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, nil, fmt.Errorf("register metrics: %w", err)
		}
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsListen, nil); err != nil {
				slog.Error("metrics listener failed", "error", err)
			}
		}()
	}

	var openRecorders []telemetry.Recorder
	newRecorder := func(agentName string) telemetry.Recorder {
		var parts telemetry.Multi
		if cfg.Enabled {
			rtt, err := telemetry.NewRTTRecorder(cfg.RTTDir, agentName)
			if err != nil {
				slog.Warn("rtt recorder unavailable", "agent", agentName, "error", err)
			} else {
				parts = append(parts, rtt)
				openRecorders = append(openRecorders, rtt)
			}
		}
		if metrics != nil {
			parts = append(parts, metrics)
		}
		if len(parts) == 0 {
			return telemetry.Nop{}
		}
		return parts
	}

	closeAll := func() {
		for _, recorder := range openRecorders {
			if err := recorder.Close(); err != nil {
				slog.Warn("close recorder", "error", err)
			}
		}
	}
	return newRecorder, closeAll, nil
}

func summarize(memory *export.MemorySink) {
	teachers := memory.Teachers()
	assigned := lo.SumBy(teachers, func(t export.TeacherExport) int { return len(t.Assigned) })
	unassigned := lo.SumBy(teachers, func(t export.TeacherExport) int { return len(t.Unassigned) })
	slog.Info("run summary",
		"teachers", len(teachers),
		"rooms", len(memory.Rooms()),
		"assigned", assigned,
		"unassigned", unassigned)

	for _, teacher := range teachers {
		for _, subject := range teacher.Unassigned {
			slog.Warn("subject left unassigned",
				"teacher", teacher.TeacherID,
				"subject", subject.Subject.Name,
				"reason", subject.Reason)
		}
	}
}

func verifyCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Cross-check the schedules a previous run exported",
		RunE: func(cmd *cobra.Command, args []string) error {
			return verify(dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "agent_output", "Directory holding the exported schedule files")
	return cmd
}

func verify(dir string) error {
	defaults := config.DefaultConfig().Export
	teachers, err := export.LoadTeacherExports(filepath.Join(dir, defaults.TeachersFile))
	if err != nil {
		return err
	}
	rooms, err := export.LoadRoomExports(filepath.Join(dir, defaults.RoomsFile))
	if err != nil {
		return err
	}

	roomMaps := lo.Map(rooms, func(r export.RoomExport, _ int) schedule.MapExport {
		return schedule.MapExport{Owner: r.RoomCode, Entries: r.Assignments}
	})
	teacherMaps := lo.Map(teachers, func(t export.TeacherExport, _ int) schedule.MapExport {
		return schedule.MapExport{Owner: t.TeacherID, Entries: t.Assigned}
	})
	if err := schedule.Verify(roomMaps, teacherMaps); err != nil {
		return fmt.Errorf("schedule verification: %w", err)
	}
	slog.Info("schedules verified consistent",
		"teachers", len(teachers), "rooms", len(rooms))
	return nil
}
