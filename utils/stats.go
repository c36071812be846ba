package utils

import "time"

// populationSmoothing is the weight of the newest generation in AveragePopulation
const populationSmoothing = 0.1

// Stats tracks how fast the game runs and how the population changes
type Stats struct {
	StartTime            time.Time
	TotalGenerations     int
	GenerationsPerSecond float64

	Population        int
	AveragePopulation float64

	// births and deaths the rules will cause in the next generation
	Births int
	Deaths int
	// births and deaths over every generation recorded so far
	TotalBirths int
	TotalDeaths int
}

func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Update records a drawn generation. frame is the time since the previous one.
func (s *Stats) Update(generation, population, births, deaths int, frame time.Duration) {
	s.TotalGenerations = generation
	s.Population = population
	if frame > 0 {
		s.GenerationsPerSecond = 1.0 / frame.Seconds()
	}

	if s.AveragePopulation == 0 {
		s.AveragePopulation = float64(population)
	} else {
		s.AveragePopulation += (float64(population) - s.AveragePopulation) * populationSmoothing
	}

	s.Births, s.Deaths = births, deaths
	s.TotalBirths += births
	s.TotalDeaths += deaths
}

// Runtime returns the time elapsed since the stats were created
func (s *Stats) Runtime() time.Duration {
	return time.Since(s.StartTime)
}
