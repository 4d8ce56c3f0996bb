package metrics

import (
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/toyamagu-2021/argocd-exporter/internal/argocd"
	"github.com/toyamagu-2021/argocd-exporter/internal/errors"
)

var appLabels = []string{"server", "app_name", "project", "namespace", "cluster"}

// Registry owns the exported gauge families. All writes go through the
// poll orchestrator; scrapes read through Gather. A single RWMutex
// keeps a server's clear+set sequence atomic with respect to a
// concurrent scrape, so a scrape never observes a server's
// applications cleared but not yet repopulated.
type Registry struct {
	mu  sync.RWMutex
	reg *prometheus.Registry

	appInfo   *prometheus.GaugeVec
	appHealth *prometheus.GaugeVec
	appSync   *prometheus.GaugeVec
	up        *prometheus.GaugeVec
}

// NewRegistry creates a registry with the four exported gauge families
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		appInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "argocd_app_info",
				Help: "Application metadata. Value is always 1; presence means the app is known.",
			},
			[]string{"server", "app_name", "project", "health_status", "sync_status", "namespace", "cluster"},
		),
		appHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "argocd_app_health_status",
				Help: "1 if the application health status is Healthy, 0 otherwise.",
			},
			appLabels,
		),
		appSync: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "argocd_app_sync_status",
				Help: "1 if the application sync status is Synced, 0 otherwise.",
			},
			appLabels,
		),
		up: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "argocd_up",
				Help: "1 if the last poll of the ArgoCD server succeeded, 0 otherwise.",
			},
			[]string{"server"},
		),
	}

	r.reg.MustRegister(r.appInfo, r.appHealth, r.appSync, r.up)
	return r
}

// SetAppInfo records the metadata series for one application
func (r *Registry) SetAppInfo(st argocd.ApplicationStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setAppInfo(st)
}

// SetAppHealth records whether one application is healthy
func (r *Registry) SetAppHealth(st argocd.ApplicationStatus, healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setAppHealth(st, healthy)
}

// SetAppSync records whether one application is synced
func (r *Registry) SetAppSync(st argocd.ApplicationStatus, synced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setAppSync(st, synced)
}

// SetServerUp records the reachability of one server. Unlike the
// per-application families, argocd_up is only ever overwritten, never
// cleared.
func (r *Registry) SetServerUp(server string, up bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.up.WithLabelValues(server).Set(boolValue(up))
}

// ClearServerApps removes every per-application series previously set
// for the given server, so apps deleted or renamed upstream do not
// linger.
func (r *Registry) ClearServerApps(server string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearServerApps(server)
}

// UpdateServerApps replaces the server's per-application series with
// the given statuses as one atomic unit.
func (r *Registry) UpdateServerApps(server string, apps []argocd.ApplicationStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearServerApps(server)
	for _, st := range apps {
		r.setAppInfo(st)
		r.setAppHealth(st, st.Healthy())
		r.setAppSync(st, st.Synced())
	}
}

func (r *Registry) setAppInfo(st argocd.ApplicationStatus) {
	r.appInfo.WithLabelValues(st.Server, st.Name, st.Project, st.Health, st.Sync, st.Namespace, st.Cluster).Set(1)
}

func (r *Registry) setAppHealth(st argocd.ApplicationStatus, healthy bool) {
	r.appHealth.WithLabelValues(st.Server, st.Name, st.Project, st.Namespace, st.Cluster).Set(boolValue(healthy))
}

func (r *Registry) setAppSync(st argocd.ApplicationStatus, synced bool) {
	r.appSync.WithLabelValues(st.Server, st.Name, st.Project, st.Namespace, st.Cluster).Set(boolValue(synced))
}

func (r *Registry) clearServerApps(server string) {
	match := prometheus.Labels{"server": server}
	r.appInfo.DeletePartialMatch(match)
	r.appHealth.DeletePartialMatch(match)
	r.appSync.DeletePartialMatch(match)
}

// Gather implements prometheus.Gatherer. It holds the read lock so a
// scrape sees a consistent snapshot across all four families.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.reg.Gather()
}

// Render writes the current snapshot in Prometheus text exposition
// format.
func (r *Registry) Render(w io.Writer) error {
	mfs, err := r.Gather()
	if err != nil {
		return errors.NewInternalError("failed to gather metrics", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return errors.NewInternalError("failed to encode metric family", err)
		}
	}
	return nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
