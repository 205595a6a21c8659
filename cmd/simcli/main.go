// Command simcli is the operator CLI for the core simulation subsystem: it
// validates a config override file, runs a pathfinding micro-benchmark, and
// dumps worker-pool health -- the debug/ops surface a tick-rate simulation
// server needs, in place of the teacher's single flat main.go (this core has
// no render loop of its own to attach flags to).
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arenacore/simcore/config"
	"github.com/arenacore/simcore/entities"
	"github.com/arenacore/simcore/pathfinding"
	"github.com/arenacore/simcore/workerpool"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "simcli",
		Short: "Operator tooling for the core simulation subsystem",
	}
	root.AddCommand(newValidateConfigCmd())
	root.AddCommand(newBenchPathCmd())
	root.AddCommand(newPoolHealthCmd())
	return root
}

func newValidateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config [path]",
		Short: "Load a config override file and report the resolved settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := config.Load(path)
			if err != nil {
				slog.Error("config validation failed", "path", path, "error", err)
				return err
			}
			slog.Info("config valid",
				"path", path,
				"entities.max_capacity", cfg.Entities.MaxCapacity,
				"collision.dynamic_cell_size", cfg.Collision.DynamicCellSize,
				"pathfinding.cell_size", cfg.Pathfinding.CellSize,
				"pathfinding.cache_capacity", cfg.Pathfinding.CacheCapacity,
				"world_resource.cell_size", cfg.WorldResource.CellSize,
				"crowd.radius", cfg.Crowd.Radius,
				"pool.workers", cfg.Pool.Workers,
			)
			return nil
		},
	}
}

func newBenchPathCmd() *cobra.Command {
	var requests int
	var worldSize float64
	var obstacleCount int
	var seed int64

	cmd := &cobra.Command{
		Use:   "bench-path",
		Short: "Run a pathfinding micro-benchmark over a synthetic obstacle field",
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := rand.New(rand.NewSource(seed))
			w, h := float32(worldSize), float32(worldSize)

			obstacles := make([]pathfinding.Obstacle, obstacleCount)
			for i := range obstacles {
				obstacles[i] = pathfinding.Obstacle{
					Position: entities.Vec2{
						X: rng.Float32() * w,
						Y: rng.Float32() * h,
					},
					Radius: 8 + rng.Float32()*24,
				}
			}

			grids := pathfinding.NewGridSet(w, h, obstacles)
			planner := pathfinding.NewPlanner(grids)

			var successes, blocked, timeouts int
			start := time.Now()
			for i := 0; i < requests; i++ {
				s := entities.Vec2{X: rng.Float32() * w, Y: rng.Float32() * h}
				g := entities.Vec2{X: rng.Float32() * w, Y: rng.Float32() * h}
				_, status := planner.FindPath(s, g, pathfinding.SizeMedium)
				switch status {
				case pathfinding.Success:
					successes++
				case pathfinding.Blocked:
					blocked++
				case pathfinding.Timeout:
					timeouts++
				}
			}
			elapsed := time.Since(start)

			slog.Info("bench-path complete",
				"requests", requests,
				"successes", successes,
				"blocked", blocked,
				"timeouts", timeouts,
				"elapsed", elapsed,
				"avg_per_request", elapsed/time.Duration(max(requests, 1)),
			)
			fmt.Printf("%d requests in %v (avg %v/request): %d ok, %d blocked, %d timeout\n",
				requests, elapsed, elapsed/time.Duration(max(requests, 1)), successes, blocked, timeouts)
			return nil
		},
	}
	cmd.Flags().IntVar(&requests, "requests", 1000, "number of random start/goal pairs to plan")
	cmd.Flags().Float64Var(&worldSize, "world-size", 2048, "square world edge length in world units")
	cmd.Flags().IntVar(&obstacleCount, "obstacles", 64, "number of random circular static obstacles")
	cmd.Flags().Int64Var(&seed, "seed", 1, "PRNG seed for reproducible benchmarks")
	return cmd
}

func newPoolHealthCmd() *cobra.Command {
	var workers, queueCap, synthTasks int
	var taskDuration time.Duration

	cmd := &cobra.Command{
		Use:   "pool-health",
		Short: "Spin up a worker pool, load it synthetically, and report pressure",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool := workerpool.New(workers, queueCap)
			defer pool.Shutdown()

			accepted := 0
			for i := 0; i < synthTasks; i++ {
				if pool.Submit(func() { time.Sleep(taskDuration) }) {
					accepted++
				}
			}

			slog.Info("pool-health",
				"submitted", synthTasks,
				"accepted", accepted,
				"rejected", synthTasks-accepted,
				"queue_depth", pool.QueueDepth(),
				"pressure_ratio", pool.PressureRatio(),
			)
			fmt.Printf("submitted=%d accepted=%d queue_depth=%d pressure=%.2f\n",
				synthTasks, accepted, pool.QueueDepth(), pool.PressureRatio())
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&queueCap, "queue-capacity", 0, "task queue capacity (0 = workers*4)")
	cmd.Flags().IntVar(&synthTasks, "tasks", 256, "synthetic tasks to submit")
	cmd.Flags().DurationVar(&taskDuration, "task-duration", 5*time.Millisecond, "simulated per-task work duration")
	return cmd
}
