package domain

type GainUnit int

const (
	UnitDecibel GainUnit = iota
	UnitLinear
)

// Suffix is the unit marker used in output and archive names.
func (u GainUnit) Suffix() string {
	if u == UnitDecibel {
		return "db"
	}
	return "lin"
}

func (u GainUnit) String() string {
	if u == UnitDecibel {
		return "db"
	}
	return "linear"
}

type Unit struct {
	File      string
	FileIndex int
	Gain      float64
	GainIndex int
}

type Artifact struct {
	Name    string
	Content []byte
	Unit    Unit
}

type Failure struct {
	Unit Unit
	Err  error
}

type Outcome struct {
	Artifacts []Artifact
	Failures  []Failure
}

func (o *Outcome) AddArtifact(a Artifact) {
	o.Artifacts = append(o.Artifacts, a)
}

func (o *Outcome) AddFailure(unit Unit, err error) {
	o.Failures = append(o.Failures, Failure{Unit: unit, Err: err})
}

type DeliveryMode string

const (
	DeliveryNone       DeliveryMode = "none"
	DeliveryIndividual DeliveryMode = "individual"
	DeliveryArchive    DeliveryMode = "archive"
)

type Delivery struct {
	Mode        DeliveryMode
	ArchiveName string
	// Locations holds whatever the Deliverer returned, in delivery order.
	Locations []string
	Failures  []error
	// Fallback is set when archiving failed and artifacts went out one by one.
	Fallback error
}

type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateError       State = "error"
	StateProcessing  State = "processing"
	StateAggregating State = "aggregating"
	StateDone        State = "done"
)

func (s State) IsTerminal() bool {
	return s == StateError || s == StateDone
}

// Message is the status line shown for a failed unit.
func (f Failure) Message() string {
	return "Error processing " + f.Unit.File + ": " + Message(f.Err)
}
