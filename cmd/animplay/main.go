// Command animplay runs the animation engine headless: it builds a demo tail rig, spawns
// skeleton instances playing random animations, crossfades them halfway through and reports
// the resulting skin palettes. A pose-animated face runs alongside, with its hardware pose
// streams uploaded to a wgpu device when -gpu is set.
package main

import (
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine"
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
	"github.com/Carmen-Shannon/oxy-anim/engine/asset"
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
	"github.com/Carmen-Shannon/oxy-anim/engine/vertex"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	instances := flag.Int("instances", 64, "number of skeleton instances")
	frames := flag.Int("frames", 240, "number of frames to evaluate")
	tickRate := flag.Int("tick-rate", 60, "frames per simulated second")
	blend := flag.Float64("blend", 0.5, "crossfade duration in seconds, started halfway through")
	dump := flag.Bool("dump", false, "dump the final palette of instance 0")
	seed := flag.Int64("seed", 1, "random seed for animation selection")
	gpu := flag.Bool("gpu", false, "upload hardware pose streams to a headless wgpu device")
	flag.Parse()

	log := common.ComponentLogger("animplay")
	if err := run(*configPath, *instances, *frames, *tickRate, float32(*blend), *dump, *seed, *gpu); err != nil {
		log.WithError(err).Error("animplay failed")
		os.Exit(1)
	}
}

func run(configPath string, instances, frames, tickRate int, blend float32, dump bool, seed int64, gpu bool) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyLogging(); err != nil {
		return err
	}
	if tickRate <= 0 {
		return errors.Errorf("tick rate must be positive, got %d", tickRate)
	}
	log := common.ComponentLogger("animplay")

	// ── Rig ─────────────────────────────────────────────────────────
	master, err := asset.BuildSkeleton(buildTailData(), buildTailClips(), cfg.SkeletonOptions()...)
	if err != nil {
		return errors.Wrap(err, "failed to build demo rig")
	}
	names := master.AnimationNames()
	log.WithFields(logrus.Fields{
		"bones":      master.NumBones(),
		"animations": names,
		"blend_mode": master.BlendMode(),
	}).Info("rig built")

	// ── Animator ────────────────────────────────────────────────────
	anim := animator.NewAnimator(cfg.AnimatorOptions()...)
	defer anim.Release()

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < instances; i++ {
		si, err := skeleton.NewSkeletonInstance(master)
		if err != nil {
			return err
		}
		idx, err := anim.AddInstance(si)
		if err != nil {
			return err
		}
		// Randomize clip and starting time so instances don't animate in lockstep
		if err := anim.PlayAnimation(idx, names[rng.Intn(len(names))], true); err != nil {
			return err
		}
		anim.SetAnimationTime(idx, rng.Float32()*2)
		anim.SetAnimationSpeed(idx, 0.75+rng.Float32()*0.5)
	}

	// ── Face ────────────────────────────────────────────────────────
	var poseFactory vertex.BufferFactory
	if gpu {
		device, err := vertex.NewDevice(false)
		if err != nil {
			return errors.Wrap(err, "failed to open wgpu device")
		}
		defer device.Release()
		poseFactory = device.BufferFactory("Face")
	}
	mouth, err := newFace(poseFactory)
	if err != nil {
		return errors.Wrap(err, "failed to build demo face")
	}
	defer mouth.release()

	// ── Engine ──────────────────────────────────────────────────────
	eng := engine.NewEngine(
		engine.WithTickRate(float64(tickRate)),
		engine.WithFixedStep(true),
		engine.WithMaxTicks(frames),
		engine.WithAnimator(0, anim),
	)
	frame := 0
	var faceErr error
	eng.SetTickCallback(func(dt float32) {
		if err := mouth.update(dt); err != nil && faceErr == nil {
			faceErr = err
			eng.Quit()
		}
		if frame == frames/2 {
			for i := 0; i < instances; i++ {
				if err := anim.BlendToAnimation(uint32(i), names[rng.Intn(len(names))], blend); err != nil {
					log.WithError(err).WithField("instance", i).Warn("crossfade not started")
				}
			}
			log.WithField("frame", frame).Debug("crossfades started")
		}
		frame++
	})

	start := time.Now()
	if err := eng.Run(); err != nil {
		return err
	}
	if faceErr != nil {
		return faceErr
	}
	elapsed := time.Since(start)

	mouthPositions, err := mouth.positions()
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"instances":  anim.InstanceCount(),
		"frames":     frames,
		"elapsed":    elapsed.Round(time.Microsecond),
		"per_frame":  (elapsed / time.Duration(max(frames, 1))).Round(time.Microsecond),
		"blending_0": instances > 0 && anim.IsBlending(0),
		"face":       mouthPositions,
		"gpu":        gpu,
	}).Info("evaluation finished")

	if dump && instances > 0 {
		palette, err := anim.BoneMatrices(0)
		if err != nil {
			return err
		}
		spew.Fdump(os.Stdout, palette)
	}
	return nil
}
