package entity

// MaxSamples tope de muestras por categoría en un resultado.
const MaxSamples = 10

// Sample una muestra de resultado (éxito, omisión o fallo) para diagnóstico.
type Sample struct {
	Key      string `json:"key"` // slug o SKU
	SourceID int64  `json:"source_id,omitempty"`
	TargetID int64  `json:"target_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Price    string `json:"price,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// Samples listas acotadas por contador.
type Samples struct {
	Created  []Sample `json:"created"`
	Updated  []Sample `json:"updated"`
	Skipped  []Sample `json:"skipped"`
	NotFound []Sample `json:"not_found"`
	Failed   []Sample `json:"failed"`
}

// ReconciliationResult resultado agregado de una reconciliación. Misma forma en dry-run y en vivo;
// solo DryRun los distingue. OK es true aunque Failed > 0: hay que mirar los contadores.
type ReconciliationResult struct {
	RunID     string   `json:"run_id,omitempty"`
	OK        bool     `json:"ok"`
	DryRun    bool     `json:"dry_run"`
	Cancelled bool     `json:"cancelled,omitempty"`
	Attempted int      `json:"attempted"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	NotFound  int      `json:"not_found"`
	Failed    int      `json:"failed"`
	Samples   Samples  `json:"samples"`
	Warnings  []string `json:"warnings,omitempty"`
}

// NewReconciliationResult resultado vacío con listas inicializadas (JSON sin null).
func NewReconciliationResult(dryRun bool) *ReconciliationResult {
	return &ReconciliationResult{
		OK:     true,
		DryRun: dryRun,
		Samples: Samples{
			Created:  []Sample{},
			Updated:  []Sample{},
			Skipped:  []Sample{},
			NotFound: []Sample{},
			Failed:   []Sample{},
		},
	}
}

// Succeeded cantidad de ítems sin fallo (para "N de M").
func (r *ReconciliationResult) Succeeded() int {
	return r.Created + r.Updated + r.Skipped
}

func (r *ReconciliationResult) AddCreated(s Sample) {
	r.Created++
	appendSample(&r.Samples.Created, s)
}

func (r *ReconciliationResult) AddUpdated(s Sample) {
	r.Updated++
	appendSample(&r.Samples.Updated, s)
}

func (r *ReconciliationResult) AddSkipped(s Sample) {
	r.Skipped++
	appendSample(&r.Samples.Skipped, s)
}

func (r *ReconciliationResult) AddNotFound(s Sample) {
	r.NotFound++
	appendSample(&r.Samples.NotFound, s)
}

func (r *ReconciliationResult) AddFailed(s Sample) {
	r.Failed++
	appendSample(&r.Samples.Failed, s)
}

// AddWarning agrega una advertencia (acotada como las muestras).
func (r *ReconciliationResult) AddWarning(msg string) {
	if len(r.Warnings) < MaxSamples {
		r.Warnings = append(r.Warnings, msg)
	}
}

func appendSample(list *[]Sample, s Sample) {
	if len(*list) < MaxSamples {
		*list = append(*list, s)
	}
}
