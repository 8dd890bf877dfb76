package loader

import (
	"context"
	"fmt"

	"github.com/itsatony/sensorhub/internal/repository"
)

type resolution struct {
	sensorID int64
	reason   string
}

// sensorResolver maps device names to sensor ids, caching every lookup
type sensorResolver struct {
	sensors repository.SensorRepository
	ownerID int64
	cache   map[string]resolution
}

func newSensorResolver(sensors repository.SensorRepository, ownerID int64) *sensorResolver {
	return &sensorResolver{
		sensors: sensors,
		ownerID: ownerID,
		cache:   make(map[string]resolution),
	}
}

func (r *sensorResolver) resolve(ctx context.Context, name string) (int64, string, error) {
	if res, ok := r.cache[name]; ok {
		return res.sensorID, res.reason, nil
	}

	found, err := r.sensors.FindByName(ctx, name, r.ownerID)
	if err != nil {
		return 0, "", fmt.Errorf("failed to look up sensor %q: %w", name, err)
	}

	var res resolution
	switch len(found) {
	case 0:
		res.reason = fmt.Sprintf("sensor %q not found", name)
	case 1:
		res.sensorID = found[0].ID
	default:
		res.reason = fmt.Sprintf("sensor name %q is ambiguous (%d sensors)", name, len(found))
	}
	r.cache[name] = res
	return res.sensorID, res.reason, nil
}
