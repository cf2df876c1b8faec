package main

import (
	"wheelly/control/internal/controller"
	"wheelly/control/internal/geometry"
	"wheelly/control/internal/worldmodel"
)

// defaultInference is a minimal reactive example policy shipped with the
// binary: drive forward at cruiseSpeed, turning away from whichever side
// the nearest hindered polar bucket sits on when it falls inside the
// configured lookahead distance. Real deliberative policies live above
// this core and are wired in by replacing this function.
func defaultInference(cruiseSpeed, lookahead float64) controller.InferenceFunc {
	return func(wm worldmodel.WorldModel) *controller.Command {
		heading := geometry.FromDeg(wm.RobotStatus.Motion.DirectionDeg)
		nearestAhead := lookahead
		steerLeft := false
		for _, cell := range wm.PolarMap {
			if cell.Distance <= 0 || cell.Distance >= nearestAhead {
				continue
			}
			relative := cell.Direction.Sub(heading)
			if !relative.IsFront(0) {
				continue
			}
			nearestAhead = cell.Distance
			steerLeft = relative.IsRight(0)
		}

		direction := heading
		if nearestAhead < lookahead {
			turn := geometry.FromDeg(30)
			if steerLeft {
				turn = geometry.FromDeg(-30)
			}
			direction = heading.Add(turn)
		}

		return &controller.Command{Kind: controller.CommandMove, Direction: direction, Speed: cruiseSpeed}
	}
}
