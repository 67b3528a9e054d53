// Package main contains a command to run the full-body solver over a stream
// of tracking frames read from a JSON file, printing the solved pose for each
// frame. It is the quickest way to eyeball solver output without a renderer.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/brianonbased-dev/holoscript-ik/fullbody"
	"github.com/brianonbased-dev/holoscript-ik/skeleton"
)

var logger = golog.NewDevelopmentLogger("poseserve")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	SkeletonFile string  `flag:"skeleton,usage=skeleton config JSON; omit for the built-in humanoid"`
	FramesFile   string  `flag:"frames,usage=tracking frames JSON"`
	Height       float64 `flag:"height,usage=avatar height in meters"`
	FrameRate    float64 `flag:"rate,usage=frames per second"`
}

// frameJSON is one tracked frame on the wire. Absent fields leave their
// pipeline stage idle, the same contract as fullbody.Targets.
type frameJSON struct {
	Hips         *[3]float64 `json:"hips,omitempty"`
	Head         *[3]float64 `json:"head,omitempty"`
	LeftHand     *[3]float64 `json:"left_hand,omitempty"`
	RightHand    *[3]float64 `json:"right_hand,omitempty"`
	LeftFoot     *[3]float64 `json:"left_foot,omitempty"`
	RightFoot    *[3]float64 `json:"right_foot,omitempty"`
	LeftFingers  []float64   `json:"left_fingers,omitempty"`
	RightFingers []float64   `json:"right_fingers,omitempty"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.FrameRate <= 0 {
		argsParsed.FrameRate = 90
	}

	skel, err := loadSkeleton(argsParsed)
	if err != nil {
		return err
	}
	ctrl, err := fullbody.NewController(skel, fullbody.DefaultOptions(), logger)
	if err != nil {
		return err
	}

	frames, err := loadFrames(argsParsed.FramesFile)
	if err != nil {
		return err
	}

	dt := 1 / argsParsed.FrameRate
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		pose, err := ctrl.Update(ctx, frame.targets(), dt)
		if err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
		logger.Debugf("frame %d solved in %s", i, time.Since(start))
		if err := enc.Encode(pose); err != nil {
			return err
		}
	}
	return nil
}

func loadSkeleton(args Arguments) (*skeleton.Skeleton, error) {
	if args.SkeletonFile == "" {
		return skeleton.NewHumanoidSkeleton(args.Height)
	}
	data, err := os.ReadFile(args.SkeletonFile)
	if err != nil {
		return nil, err
	}
	return skeleton.UnmarshalSkeletonJSON(data)
}

func loadFrames(path string) ([]frameJSON, error) {
	if path == "" {
		// no frames given; solve a single neutral reach so the command
		// still produces output
		fwd := [3]float64{0.3, 1.2, 0.25}
		return []frameJSON{{LeftHand: &fwd}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var frames []frameJSON
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, errors.Wrap(err, "parsing frames")
	}
	return frames, nil
}

func (f *frameJSON) targets() *fullbody.Targets {
	targets := &fullbody.Targets{
		LeftFingers:  f.LeftFingers,
		RightFingers: f.RightFingers,
	}
	if f.Hips != nil {
		v := vec(*f.Hips)
		targets.Hips = &v
	}
	if f.Head != nil {
		targets.Head = fullbody.NewLookAtTarget(vec(*f.Head))
	}
	if f.LeftHand != nil {
		targets.LeftHand = skeleton.NewTarget(skeleton.ArmChainID(skeleton.Left), vec(*f.LeftHand))
	}
	if f.RightHand != nil {
		targets.RightHand = skeleton.NewTarget(skeleton.ArmChainID(skeleton.Right), vec(*f.RightHand))
	}
	if f.LeftFoot != nil {
		targets.LeftFoot = skeleton.NewTarget(skeleton.LegChainID(skeleton.Left), vec(*f.LeftFoot))
	}
	if f.RightFoot != nil {
		targets.RightFoot = skeleton.NewTarget(skeleton.LegChainID(skeleton.Right), vec(*f.RightFoot))
	}
	return targets
}

func vec(a [3]float64) r3.Vector {
	return r3.Vector{X: a[0], Y: a[1], Z: a[2]}
}
