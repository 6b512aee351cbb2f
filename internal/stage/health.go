package stage

// Health reports a stage's readiness to process work.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy builds a ready Health report.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy builds a not-ready Health report with an explanation.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
