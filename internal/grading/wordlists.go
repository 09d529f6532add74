package grading

// Marker phrases are matched on whole cleaned words, so "study" never hits
// "student". Multi-word phrases must appear as consecutive words.

var introductionMarkers = []string{
	"this essay",
	"this paper",
	"introduction",
	"will discuss",
	"will explore",
	"will examine",
	"will argue",
	"aims to",
	"the purpose of",
}

var thesisMarkers = []string{
	"argue that",
	"argues that",
	"i believe",
	"thesis",
	"i contend",
	"the central claim",
	"should",
}

var conclusionMarkers = []string{
	"in conclusion",
	"to conclude",
	"in summary",
	"to summarize",
	"in closing",
	"to sum up",
	"overall",
	"ultimately",
}

var evidenceMarkers = []string{
	"for example",
	"for instance",
	"according to",
	"research",
	"researchers",
	"study",
	"studies",
	"evidence",
	"data",
	"statistics",
	"survey",
	"percent",
	"found that",
	"shows that",
}

var counterargumentMarkers = []string{
	"however",
	"on the other hand",
	"critics",
	"opponents",
	"some argue",
	"some may argue",
	"others argue",
	"although",
	"despite",
	"while some",
}

var transitionWords = []string{
	"however",
	"furthermore",
	"moreover",
	"therefore",
	"consequently",
	"additionally",
	"in addition",
	"for example",
	"for instance",
	"in contrast",
	"on the other hand",
	"similarly",
	"nevertheless",
	"as a result",
	"meanwhile",
	"likewise",
	"subsequently",
}

var logicalConnectors = []string{
	"because",
	"since",
	"thus",
	"hence",
	"although",
	"whereas",
	"unless",
	"so that",
	"due to",
	"which means",
	"in order to",
}

var academicVocabulary = toSet([]string{
	"analysis",
	"analyze",
	"approach",
	"assess",
	"comprehensive",
	"concept",
	"context",
	"critical",
	"crucial",
	"demonstrate",
	"demonstrates",
	"establish",
	"factors",
	"framework",
	"fundamental",
	"hypothesis",
	"impact",
	"implications",
	"indicate",
	"indicates",
	"interpret",
	"methodology",
	"perspective",
	"phenomenon",
	"potential",
	"principle",
	"significant",
	"significantly",
	"substantial",
	"sustainable",
	"theory",
})

var commonMisspellings = toSet([]string{
	"accomodate",
	"alot",
	"arguement",
	"basicly",
	"becuase",
	"begining",
	"beleive",
	"definately",
	"enviroment",
	"existance",
	"goverment",
	"independant",
	"neccessary",
	"occured",
	"occurence",
	"recieve",
	"recieved",
	"seperate",
	"teh",
	"thier",
	"tommorow",
	"truely",
	"untill",
	"wich",
	"wierd",
})

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}
