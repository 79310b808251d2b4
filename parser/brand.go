package parser

import "strings"

// UnknownBrand is returned when no brand can be inferred.
const UnknownBrand = "Unknown"

const (
	maxBrandLen = 20
	maxModelLen = 100
)

var (
	techBrands      = []string{"HP", "Dell", "Lenovo", "Asus", "Acer", "Apple", "Microsoft", "MSI"}
	phoneBrands     = []string{"Samsung", "iPhone", "Huawei", "Xiaomi", "OnePlus", "Nokia", "Oppo", "Vivo"}
	tvBrands        = []string{"Samsung", "LG", "Sony", "TCL", "Hisense", "Toshiba"}
	applianceBrands = []string{"Samsung", "LG", "Whirlpool", "Bosch", "Electrolux"}
	gamingBrands    = []string{"PlayStation", "Xbox", "Nintendo", "Razer", "Logitech"}
)

// modelStopWords are stripped from model names in their given, upper and
// lower case forms.
var modelStopWords = []string{"Laptop", "Smartphone", "TV", "Inch", "GB", "TB", "RAM", "SSD", "HDD"}

// CategoryProfile holds per-category inference data. Brand order matters:
// the first brand found in a name wins.
type CategoryProfile struct {
	Brands     []string
	BudgetMax  float64
	PremiumMax float64
}

var profiles = map[string]CategoryProfile{
	"ordinateurs-pc": {
		Brands:     concat(techBrands, gamingBrands),
		BudgetMax:  3000,
		PremiumMax: 10000,
	},
	"telephones-smartphones": {
		Brands:     phoneBrands,
		BudgetMax:  2000,
		PremiumMax: 6000,
	},
	"tv-home-cinema-lecteurs": {
		Brands:     tvBrands,
		BudgetMax:  2500,
		PremiumMax: 8000,
	},
	"mlp-electromenager": {
		Brands:     applianceBrands,
		BudgetMax:  1500,
		PremiumMax: 5000,
	},
	"jeux-videos-consoles": {
		Brands:     concat(techBrands, gamingBrands),
		BudgetMax:  1000,
		PremiumMax: 4000,
	},
}

var defaultProfile = CategoryProfile{
	Brands:     concat(techBrands, phoneBrands, tvBrands, applianceBrands, gamingBrands),
	BudgetMax:  1000,
	PremiumMax: 5000,
}

// ProfileFor returns the profile for a category key, or the default profile.
func ProfileFor(categoryKey string) CategoryProfile {
	if p, ok := profiles[categoryKey]; ok {
		return p
	}
	return defaultProfile
}

// InferBrand looks for a known brand of the category in the product name,
// ignoring case. Without a match the first word of the name is used.
func InferBrand(name, categoryKey string) string {
	upper := strings.ToUpper(name)
	for _, brand := range ProfileFor(categoryKey).Brands {
		if strings.Contains(upper, strings.ToUpper(brand)) {
			return brand
		}
	}

	fields := strings.Fields(name)
	if len(fields) == 0 {
		return UnknownBrand
	}
	return truncate(fields[0], maxBrandLen)
}

// InferModel strips the brand and filler words from the name. The brand is
// matched case-sensitively here, unlike InferBrand.
func InferModel(name, brand string) string {
	if brand == UnknownBrand || !strings.Contains(name, brand) {
		return truncate(name, maxModelLen)
	}

	model := strings.TrimSpace(strings.ReplaceAll(name, brand, ""))
	for _, word := range modelStopWords {
		model = strings.ReplaceAll(model, word, "")
		model = strings.ReplaceAll(model, strings.ToUpper(word), "")
		model = strings.ReplaceAll(model, strings.ToLower(word), "")
	}
	return truncate(strings.TrimSpace(model), maxModelLen)
}

func concat(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, b := range list {
			if _, ok := seen[b]; ok {
				continue
			}
			seen[b] = struct{}{}
			out = append(out, b)
		}
	}
	return out
}
