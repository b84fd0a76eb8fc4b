package extract

type rule struct {
	label    string
	keywords []string
}

var fitRules = []rule{
	{"slim", []string{"slim"}},
	{"relaxed", []string{"relaxed"}},
	{"oversized", []string{"oversized"}},
	{"tapered", []string{"tapered"}},
	{"straight", []string{"straight"}},
	{"wide", []string{"wide leg", "wide-leg", "wide fit"}},
	{"boxy", []string{"boxy"}},
	{"regular", []string{"regular fit"}},
}

var colorWords = []string{
	"black", "navy", "blue", "grey", "gray", "olive", "khaki", "white",
	"brown", "indigo", "cream", "ecru", "green", "red", "beige", "tan",
}

var materialWords = []string{
	"cotton", "wool", "denim", "leather", "nylon", "linen",
	"cashmere", "suede", "corduroy", "canvas", "flannel", "fleece",
}

var styleTagRules = []rule{
	{"vintage", []string{"vintage"}},
	{"rare", []string{"rare"}},
	{"japanese", []string{"japan"}},
	{"workwear", []string{"workwear", "chore"}},
	{"minimalist", []string{"minimal"}},
	{"military", []string{"military", "field jacket", "m-65"}},
	{"selvedge", []string{"selvedge", "selvage"}},
	{"technical", []string{"gore-tex", "technical"}},
}

// categoryRules are checked in order; the first hit wins.
var categoryRules = []rule{
	{"jacket", []string{"jacket", "coat", "blazer", "parka", "bomber"}},
	{"pants", []string{"pants", "trousers", "chinos", "slacks"}},
	{"jeans", []string{"jeans", "denim pants", "jean"}},
	{"t-shirt", []string{"t-shirt", "tee", "tshirt"}},
	{"shirt", []string{"shirt", "button up", "oxford", "flannel"}},
	{"sweater", []string{"sweater", "cardigan", "knit", "pullover"}},
	{"hoodie", []string{"hoodie", "hooded", "sweatshirt"}},
	{"shorts", []string{"shorts"}},
	{"shoes", []string{"shoes", "boots", "sneakers", "loafers"}},
}

var descriptorRules = []rule{
	{"sprezzatura", []string{"sprezzatura", "nonchalant", "effortless"}},
	{"ivy", []string{"ivy", "preppy", "trad"}},
	{"sartorial", []string{"sartorial", "tailoring", "bespoke", "made to measure"}},
	{"workwear", []string{"workwear", "work wear", "utilitarian", "chore coat"}},
	{"heritage", []string{"heritage", "timeless"}},
	{"minimalist", []string{"minimalist", "minimal", "clean lines"}},
	{"techwear", []string{"techwear", "gorpcore"}},
	{"japanese", []string{"japanese", "made in japan"}},
	{"scandinavian", []string{"scandinavian", "nordic", "scandi"}},
	{"americana", []string{"americana", "ivy style"}},
	{"military", []string{"military", "mil-spec", "field jacket"}},
	{"slim fit", []string{"slim", "slim cut", "narrow", "skinny"}},
	{"relaxed", []string{"relaxed", "easy fit", "loose"}},
	{"oversized", []string{"oversized", "boxy"}},
	{"high rise", []string{"high rise", "high waist"}},
	{"neapolitan", []string{"neapolitan", "napoli", "italian tailoring"}},
	{"british", []string{"british", "savile row", "english cut"}},
	{"streetwear", []string{"streetwear", "street style", "hypebeast"}},
	{"raw denim", []string{"raw denim", "selvedge", "selvage", "unsanforized"}},
	{"goodyear welt", []string{"goodyear", "blake", "welted"}},
}

var itemKeywords = []string{
	"suit", "sport coat", "blazer", "odd jacket",
	"trousers", "pants", "chinos", "jeans", "denim",
	"shirt", "dress shirt", "ocbd", "oxford",
	"tie", "pocket square", "grenadine",
	"shoes", "boots", "loafers", "derbies", "sneakers",
	"overcoat", "topcoat", "parka", "jacket", "chore coat",
	"sweater", "cardigan", "knitwear", "hoodie", "t-shirt",
}

var knownBrands = []string{
	// Japanese
	"Orslow", "Engineered Garments", "Kapital", "Visvim", "Needles",
	"Beams", "United Arrows", "Nanamica", "Snow Peak", "And Wander",
	"Comme des Garcons", "Yohji Yamamoto", "Issey Miyake", "Sacai",
	"White Mountaineering", "Porter", "Momotaro", "Pure Blue Japan",
	"Iron Heart", "The Flat Head", "Japan Blue", "Uniqlo",
	// Italian and British
	"Brunello Cucinelli", "Loro Piana", "Kiton", "Boglioli", "Barena",
	"Drake's", "Private White VC", "Sunspel", "John Smedley", "Mackintosh",
	"Barbour", "Baracuta", "Grenfell", "Burberry",
	// American heritage
	"Alden", "Allen Edmonds", "Red Wing", "Filson", "Pendleton", "Schott",
	"Real McCoys", "Buzz Rickson", "Levi's", "Wrangler",
	// Scandinavian
	"Acne Studios", "Our Legacy", "Norse Projects", "Wood Wood",
	"Arket", "COS", "Filippa K", "Tiger of Sweden", "Samsoe Samsoe",
	// French and contemporary
	"A.P.C.", "Ami", "Lemaire", "Officine Generale", "Paraboot",
	"Rick Owens", "Undercover", "Dries Van Noten", "Maison Margiela",
	"Aimé Leon Dore", "Fear of God", "Stussy", "Supreme", "Kith", "Noah",
	// Denim and workwear
	"3sixteen", "Rogue Territory", "Taylor Stitch", "Naked & Famous", "Nudie Jeans",
	"Carhartt", "Carhartt WIP", "Dickies", "Stan Ray", "Universal Works",
	"Nigel Cabourn", "YMC",
	// Technical
	"Arc'teryx", "Veilance", "Outlier", "Acronym", "Stone Island", "C.P. Company",
	"Patagonia",
}
