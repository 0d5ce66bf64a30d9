package lab

import (
	"fmt"
	"sync"

	"golang.org/x/exp/rand"
)

const (
	// AmbientLux is the light level of a zone with lights off and blinds down
	AmbientLux = 20.0
	// LampLux is added to a zone while its lights are on
	LampLux = 180.0
	// BlindsTransmission is the share of the sunshine entering a zone with blinds up
	BlindsTransmission = 0.35
)

// SunshineReadings are the outside lux values drawn on reset
var SunshineReadings = []float64{30, 150, 450, 900}

// Simulator is an in-memory two zone lab
type Simulator struct {
	lock     *sync.Mutex
	rand     *rand.Rand
	sunshine float64
	lights   [2]bool
	blinds   [2]bool
}

func NewSimulator(seed uint64) *Simulator {
	s := &Simulator{
		lock: new(sync.Mutex),
		rand: rand.New(rand.NewSource(seed)),
	}
	s.Reset()
	return s
}

// Reset draws the sunshine and the initial lights and blinds
func (s *Simulator) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sunshine = SunshineReadings[s.rand.Intn(len(SunshineReadings))]
	for z := 0; z < 2; z++ {
		s.lights[z] = s.rand.Intn(2) == 1
		s.blinds[z] = s.rand.Intn(2) == 1
	}
}

// SetSunshine fixes the outside lux reading until the next reset
func (s *Simulator) SetSunshine(lux float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sunshine = lux
}

func (s *Simulator) zoneLux(z int) float64 {
	lux := AmbientLux
	if s.lights[z] {
		lux += LampLux
	}
	if s.blinds[z] {
		lux += BlindsTransmission * s.sunshine
	}
	return lux
}

// Status is the payload of the status property
func (s *Simulator) Status() map[string]interface{} {
	s.lock.Lock()
	defer s.lock.Unlock()
	return map[string]interface{}{
		Z1Level:  s.zoneLux(0),
		Z2Level:  s.zoneLux(1),
		Z1Light:  s.lights[0],
		Z2Light:  s.lights[1],
		Z1Blinds: s.blinds[0],
		Z2Blinds: s.blinds[1],
		Sunshine: s.sunshine,
	}
}

// Set changes one of the controllable fields
func (s *Simulator) Set(field string, value bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch field {
	case Z1Light:
		s.lights[0] = value
	case Z2Light:
		s.lights[1] = value
	case Z1Blinds:
		s.blinds[0] = value
	case Z2Blinds:
		s.blinds[1] = value
	default:
		return fmt.Errorf("unknown field %s", field)
	}
	return nil
}
