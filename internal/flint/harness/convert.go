package harness

import (
	"fmt"

	"flint.dev/internal/flint"
	"flint.dev/internal/sim/world"
)

// NormalizeFace maps spec-file face names onto the engine's. Specs may say
// top/bottom for up/down.
func NormalizeFace(face string) (string, error) {
	switch face {
	case "top":
		return "up", nil
	case "bottom":
		return "down", nil
	case "up", "down", "north", "south", "east", "west":
		return face, nil
	}
	return "", fmt.Errorf("unknown face %q", face)
}

func toVec(p flint.BlockPos) world.Vec3i {
	return world.Vec3i{X: p[0], Y: p[1], Z: p[2]}
}
