package argocd

// ApplicationStatus is the normalized per-application record derived
// from one entry of the applications list response. Every field is
// defaulted rather than left empty, so the record can flow straight
// into metric labels.
type ApplicationStatus struct {
	Server    string
	Name      string
	Project   string
	Namespace string
	Cluster   string
	Health    string
	Sync      string
}

// Healthy reports whether the application's health status is Healthy
func (s ApplicationStatus) Healthy() bool {
	return s.Health == HealthHealthy
}

// Synced reports whether the application's sync status is Synced
func (s ApplicationStatus) Synced() bool {
	return s.Sync == SyncSynced
}

// Normalize maps a raw application object to an ApplicationStatus.
// Missing fields default instead of failing the call: name and
// namespace fall back to "unknown", project to "default", cluster to
// the destination server, then the destination name, then "unknown",
// and both status fields to "Unknown".
func Normalize(server string, app Application) ApplicationStatus {
	st := ApplicationStatus{
		Server:    server,
		Name:      app.Metadata.Name,
		Project:   app.Spec.Project,
		Namespace: app.Metadata.Namespace,
		Health:    app.Status.Health.Status,
		Sync:      app.Status.Sync.Status,
	}

	if st.Name == "" {
		st.Name = "unknown"
	}
	if st.Project == "" {
		st.Project = "default"
	}
	if st.Namespace == "" {
		st.Namespace = "unknown"
	}

	switch {
	case app.Spec.Destination.Server != "":
		st.Cluster = app.Spec.Destination.Server
	case app.Spec.Destination.Name != "":
		st.Cluster = app.Spec.Destination.Name
	default:
		st.Cluster = "unknown"
	}

	if st.Health == "" {
		st.Health = HealthUnknown
	}
	if st.Sync == "" {
		st.Sync = SyncUnknown
	}

	return st
}
