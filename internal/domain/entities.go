package domain

import "time"

// Remote collection names. They match the document collections the content
// is published under, including their original casing.
const (
	CollectionTopics    = "Temas"
	CollectionSections  = "Secciones"
	CollectionPractices = "Practicas"
	CollectionDocuments = "documentos"
)

// FieldOrder is the remote field used for display ordering.
const FieldOrder = "orden"

// FieldTopic is the practice field referencing its parent topic.
const FieldTopic = "tema"

// Topic is a unit of learning content (tema).
// JSON tags keep the remote field names so documents decode without mapping.
type Topic struct {
	ID         string `json:"id"`
	Title      string `json:"titulo"`
	Intro      string `json:"intro"`
	Text       string `json:"texto"`       // Rich HTML body
	Image      string `json:"img"`         // Remote image URL
	LocalImage string `json:"imagenLocal"` // Handle into the image cache, empty until downloaded
	Section    string `json:"seccion"`     // Section.Name this topic belongs to
	Order      int    `json:"orden"`
	Video      string `json:"video"` // One or more comma-separated video URLs
	Active     bool   `json:"activo"`
}

// Section groups topics (seccion). Topics reference it by Name.
type Section struct {
	ID          string `json:"id"`
	Name        string `json:"nombre"`
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Image       string `json:"imagen"`
	LocalImage  string `json:"imagenLocal"`
	Order       int    `json:"orden"`
	Active      bool   `json:"activo"`
}

// Practice is a quiz question attached to a topic (practica).
type Practice struct {
	ID       string `json:"id"`
	Topic    string `json:"tema"` // Topic.ID
	Question string `json:"pregunta"`
	A        string `json:"A"`
	B        string `json:"B"`
	C        string `json:"C"`
	Answer   string `json:"respuesta"` // "A", "B" or "C"
	Order    int    `json:"orden"`
	Active   bool   `json:"activo"`
}

// Choices returns the candidate answers keyed by their marker.
func (p Practice) Choices() map[string]string {
	return map[string]string{"A": p.A, "B": p.B, "C": p.C}
}

// IsCorrect reports whether choice is the correct answer marker.
func (p Practice) IsCorrect(choice string) bool {
	return choice != "" && choice == p.Answer
}

// Document is a standalone piece of content (donations page, notices...).
type Document struct {
	ID      string `json:"id"`
	Kind    string `json:"documento"`
	Title   string `json:"titulo"`
	Content string `json:"contenido"`
	Link    string `json:"enlace"`
	Order   int    `json:"orden"`
}

// SyncStatus is persisted alongside the collections after every successful pass.
type SyncStatus struct {
	LastSync   time.Time `json:"lastSync"`
	Version    int64     `json:"version"` // Capture time in unix milliseconds
	HasChanges bool      `json:"hasChanges"`
}

// Snapshot is one consistent generation of the three synced collections.
type Snapshot struct {
	Topics    []Topic
	Sections  []Section
	Practices []Practice
}
