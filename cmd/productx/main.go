// Command productx runs a demonstration pipeline that assembles
// "product X": every job needs a customized part A and part B, built
// in parallel by two self-scaling teams, then packed and delivered by
// a third. A dispatcher controller feeds fresh jobs to the part
// teams; a collector controller hands jobs with both parts ready to
// the pack team.
package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/spf13/cobra"

	"github.com/metatutu/pipeline"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		jobs       int
	)
	cmd := &cobra.Command{
		Use:          "productx",
		Short:        "Run the product X assembly pipeline demo",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("jobs") {
				cfg.Jobs = jobs
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	cmd.Flags().IntVarP(&jobs, "jobs", "n", 50, "number of jobs to feed the pipeline")
	return cmd
}

func run(cfg config) error {
	ctx := context.Background()
	logger := lg.FromContext(ctx)

	jobs := make([]*job, cfg.Jobs)
	for i := range jobs {
		jobs[i] = &job{id: fmt.Sprintf("job %d", i+1)}
	}

	partATeam, err := newBuildTeam(ctx, cfg, "part-a", (*job).setPartA)
	if err != nil {
		return err
	}
	partBTeam, err := newBuildTeam(ctx, cfg, "part-b", (*job).setPartB)
	if err != nil {
		return err
	}
	packTeam, err := newPackTeam(ctx, cfg)
	if err != nil {
		return err
	}

	collector := pipeline.NewController(ctx, "collector", func(ctx context.Context) {
		watchJobs(ctx, jobs, func(j *job) {
			if j.beginPack() {
				_ = packTeam.Push(j)
				logger.Info("collector: dispatched", lg.String("job", j.id))
			}
		})
	})

	// The dispatcher is the first pipeline stage, so it is listed
	// last: it must not start feeding before the rest is ready.
	dispatcher := pipeline.NewController(ctx, "dispatcher", func(ctx context.Context) {
		watchJobs(ctx, jobs, func(j *job) {
			if j.beginBuild() {
				_ = partATeam.Push(j)
				_ = partBTeam.Push(j)
				logger.Info("dispatcher: dispatched", lg.String("job", j.id))
			}
		})
	})

	line := pipeline.NewPipeline(partATeam, partBTeam, packTeam, collector, dispatcher)

	clocker := pipeline.NewClocker()
	if err := line.Hire(); err != nil {
		return err
	}
	clocker.Record("hire")

	for !allDelivered(jobs) {
		time.Sleep(10 * time.Millisecond)
	}
	clocker.Record("wait")

	if err := line.Dismiss(); err != nil {
		return err
	}
	clocker.Record("dismiss")

	fmt.Println(clocker.ResultsText())
	return nil
}

// watchJobs sweeps the job list on a short interval until ctx is
// cancelled, applying fn to every job. fn decides per job whether
// there is anything to do.
func watchJobs(ctx context.Context, jobs []*job, fn func(*job)) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		for _, j := range jobs {
			fn(j)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func allDelivered(jobs []*job) bool {
	for _, j := range jobs {
		if !j.delivered() {
			return false
		}
	}
	return true
}

// newBuildTeam creates a part-building team. sign stores the built
// part and the building operator's name on the job.
func newBuildTeam(ctx context.Context, cfg config, part string, sign func(*job, string, string)) (*pipeline.Team, error) {
	logger := lg.FromContext(ctx)
	buildTime := time.Duration(cfg.BuildMS) * time.Millisecond

	var seq atomic.Int64
	opts := pipeline.TeamOptions{
		Name: part,
		Ctx:  ctx,
		NewHandler: func() pipeline.TaskHandler {
			operator := fmt.Sprintf("%s builder %d", part, seq.Add(1))
			return pipeline.ProcessFunc(func(t *pipeline.Task) error {
				j := t.Payload.(*job)
				sign(j, fmt.Sprintf("%s for %s", part, j.id), operator)
				logger.Info("built part",
					lg.String("operator", operator),
					lg.String("job", j.id),
				)
				time.Sleep(buildTime)
				return nil
			})
		},
	}
	cfg.Build.apply(&opts)
	return pipeline.NewTeam(opts)
}

// newPackTeam creates the team that packs both parts and delivers the
// product.
func newPackTeam(ctx context.Context, cfg config) (*pipeline.Team, error) {
	packTime := time.Duration(cfg.PackMS) * time.Millisecond

	var seq atomic.Int64
	opts := pipeline.TeamOptions{
		Name: "pack",
		Ctx:  ctx,
		NewHandler: func() pipeline.TaskHandler {
			operator := fmt.Sprintf("packer %d", seq.Add(1))
			return pipeline.ProcessFunc(func(t *pipeline.Task) error {
				j := t.Payload.(*job)
				j.deliver(operator)
				fmt.Printf("%s: delivering %s\n    %s by %s\n    %s by %s\n",
					operator, j.id,
					j.partA, j.partAOperator,
					j.partB, j.partBOperator,
				)
				time.Sleep(packTime)
				return nil
			})
		},
	}
	cfg.Pack.apply(&opts)
	return pipeline.NewTeam(opts)
}
