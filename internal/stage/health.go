package stage

// Health reports whether a generation stage has what it needs to run,
// typically the presence of API credentials in the loaded configuration.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks the named stage as ready to accept work.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy marks the named stage as not ready. Detail names the missing
// configuration so status output can tell the operator what to fix.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
