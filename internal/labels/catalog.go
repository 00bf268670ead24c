// Package labels holds the static class catalog of the leaf disease model:
// class index, canonical id, display name and remediation advice.
package labels

import "strings"

const (
	// UnknownID is returned for indices outside the catalog.
	UnknownID = "Unknown"
	// FallbackAdvice is returned for ids without a curated entry.
	FallbackAdvice = "Consult a local agronomist."

	speciesSeparator = "___"
)

// ClassLabel is one entry of the catalog.
type ClassLabel struct {
	Index       int    `json:"index"`
	CanonicalID string `json:"canonical_id"`
	DisplayName string `json:"display_name"`
}

// Catalog is a read-only lookup over the model's classes. It is built once and
// never mutated, so it is safe for concurrent use.
type Catalog struct {
	labels []ClassLabel
	advice map[string]string
}

// Index order is the model's output order and must not change.
var canonicalIDs = [...]string{
	"Apple___Apple_scab",
	"Apple___Black_rot",
	"Apple___Cedar_apple_rust",
	"Apple___healthy",
	"Blueberry___healthy",
	"Cherry_(including_sour)___Powdery_mildew",
	"Cherry_(including_sour)___healthy",
	"Corn_(maize)___Cercospora_leaf_spot Gray_leaf_spot",
	"Corn_(maize)___Common_rust_",
	"Corn_(maize)___Northern_Leaf_Blight",
	"Corn_(maize)___healthy",
	"Grape___Black_rot",
	"Grape___Esca_(Black_Measles)",
	"Grape___Leaf_blight_(Isariopsis_Leaf_Spot)",
	"Grape___healthy",
	"Orange___Haunglongbing_(Citrus_greening)",
	"Peach___Bacterial_spot",
	"Peach___healthy",
	"Pepper,_bell___Bacterial_spot",
	"Pepper,_bell___healthy",
	"Potato___Early_blight",
	"Potato___Late_blight",
	"Potato___healthy",
	"Raspberry___healthy",
	"Soybean___healthy",
	"Squash___Powdery_mildew",
	"Strawberry___Leaf_scorch",
	"Strawberry___healthy",
	"Tomato___Bacterial_spot",
	"Tomato___Early_blight",
	"Tomato___Late_blight",
	"Tomato___Leaf_Mold",
	"Tomato___Septoria_leaf_spot",
	"Tomato___Spider_mites Two-spotted_spider_mite",
	"Tomato___Target_Spot",
	"Tomato___Tomato_Yellow_Leaf_Curl_Virus",
	"Tomato___Tomato_mosaic_virus",
	"Tomato___healthy",
}

var curatedAdvice = map[string]string{
	"Apple___Apple_scab":                                 "Use fungicides like captan or sulfur. Remove infected leaves.",
	"Apple___Black_rot":                                  "Prune infected branches. Use fungicides.",
	"Apple___Cedar_apple_rust":                           "Remove nearby cedar trees. Use resistant varieties.",
	"Apple___healthy":                                    "Your apple tree is healthy! Maintain regular watering.",
	"Blueberry___healthy":                                "Your blueberry plant is healthy. Keep soil acidic.",
	"Cherry_(including_sour)___Powdery_mildew":           "Use sulfur-based fungicides. Prune for air circulation.",
	"Cherry_(including_sour)___healthy":                  "Healthy cherry tree! Ensure good drainage.",
	"Corn_(maize)___Cercospora_leaf_spot Gray_leaf_spot": "Use resistant hybrids. Rotate crops.",
	"Corn_(maize)___Common_rust_":                        "Plant resistant varieties. Apply fungicides if severe.",
	"Corn_(maize)___Northern_Leaf_Blight":                "Use resistant hybrids. Manage residue.",
	"Corn_(maize)___healthy":                             "Healthy corn! Keep monitoring for pests.",
	"Grape___Black_rot":                                  "Remove mummified berries. Use fungicides.",
	"Grape___Esca_(Black_Measles)":                       "Prune infected parts. No cure, prevention is key.",
	"Grape___Leaf_blight_(Isariopsis_Leaf_Spot)":         "Use fungicides. Improve air circulation.",
	"Grape___healthy":                                    "Healthy grapes! Prune regularly.",
	"Orange___Haunglongbing_(Citrus_greening)":           "Remove infected trees. Control psyllids.",
	"Peach___Bacterial_spot":                             "Use copper sprays. Plant resistant varieties.",
	"Peach___healthy":                                    "Healthy peach tree! Fertilize in spring.",
	"Pepper,_bell___Bacterial_spot":                      "Use copper sprays. Remove infected plants.",
	"Pepper,_bell___healthy":                             "Healthy peppers! Water consistently.",
	"Potato___Early_blight":                              "Use fungicides. Rotate crops.",
	"Potato___Late_blight":                               "Destroy infected plants immediately. Use fungicides.",
	"Potato___healthy":                                   "Healthy potatoes! Hill soil around plants.",
	"Raspberry___healthy":                                "Healthy raspberries! Prune old canes.",
	"Soybean___healthy":                                  "Healthy soybeans! Monitor for pests.",
	"Squash___Powdery_mildew":                            "Use neem oil or sulfur. Water at base.",
	"Strawberry___Leaf_scorch":                           "Remove infected leaves. Improve drainage.",
	"Strawberry___healthy":                               "Healthy strawberries! Mulch to keep berries clean.",
	"Tomato___Bacterial_spot":                            "Use copper sprays. Avoid overhead watering.",
	"Tomato___Early_blight":                              "Mulch soil. Use fungicides like chlorothalonil.",
	"Tomato___Late_blight":                               "Remove infected plants. Use copper fungicides.",
	"Tomato___Leaf_Mold":                                 "Improve air circulation. Water at base.",
	"Tomato___Septoria_leaf_spot":                        "Remove lower leaves. Use fungicides.",
	"Tomato___Spider_mites Two-spotted_spider_mite":      "Use insecticidal soap or neem oil.",
	"Tomato___Target_Spot":                               "Use fungicides. Improve air circulation.",
	"Tomato___Tomato_Yellow_Leaf_Curl_Virus":             "Control whiteflies. Remove infected plants.",
	"Tomato___Tomato_mosaic_virus":                       "Remove infected plants. Wash hands after handling tobacco.",
	"Tomato___healthy":                                   "Your tomato plant is healthy! Keep up the good work.",
}

var defaultCatalog = newCatalog()

func newCatalog() *Catalog {
	c := &Catalog{
		labels: make([]ClassLabel, len(canonicalIDs)),
		advice: make(map[string]string, len(curatedAdvice)),
	}
	for i, id := range canonicalIDs {
		c.labels[i] = ClassLabel{Index: i, CanonicalID: id, DisplayName: DisplayName(id)}
	}
	for id, text := range curatedAdvice {
		c.advice[id] = text
	}
	return c
}

// Default returns the process-wide catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Size is the number of classes the model predicts.
func (c *Catalog) Size() int {
	return len(c.labels)
}

// Resolve maps a class index to its label. Indices outside the catalog resolve
// to the Unknown sentinel.
func (c *Catalog) Resolve(index int) ClassLabel {
	if index < 0 || index >= len(c.labels) {
		return ClassLabel{Index: index, CanonicalID: UnknownID, DisplayName: UnknownID}
	}
	return c.labels[index]
}

// AdviceFor returns the curated remediation text for a canonical id.
func (c *Catalog) AdviceFor(canonicalID string) string {
	if text, ok := c.advice[canonicalID]; ok {
		return text
	}
	return FallbackAdvice
}

// All returns a copy of every label in index order.
func (c *Catalog) All() []ClassLabel {
	out := make([]ClassLabel, len(c.labels))
	copy(out, c.labels)
	return out
}

// DisplayName turns "species___condition" into "species - condition". The
// species separator is replaced first so that underscores inside the condition
// (including trailing ones) become plain spaces.
func DisplayName(canonicalID string) string {
	name := strings.ReplaceAll(canonicalID, speciesSeparator, " - ")
	return strings.ReplaceAll(name, "_", " ")
}
