package reports

// Report is anything the agent can render for the operator as a named
// JSON document.
type Report interface {
	ReportName() string
	DumpReport() ([]byte, error)
}
