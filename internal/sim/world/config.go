package world

type WorldConfig struct {
	ID         string
	TickRateHz int
	Height     int
	Seed       int64
	BoundaryR  int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "W1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.Height <= 0 {
		c.Height = 64
	}
	if c.BoundaryR <= 0 {
		c.BoundaryR = 4000
	}
}
