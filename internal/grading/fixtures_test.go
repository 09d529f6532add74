package grading_test

import "strings"

// wellStructuredEssay has an introduction, a thesis, evidence, a
// counterargument and a conclusion across five paragraphs.
var wellStructuredEssay = "This essay will discuss how public libraries strengthen local communities, and I argue that cities should protect their funding in every budget.\n\n" +
	"Libraries provide free access to books, computers and quiet study space for residents who cannot afford them at home. For example, a recent survey found that many families rely on library internet access to complete school assignments and job applications. Librarians offer guidance that helps visitors evaluate sources and develop critical research skills. Many branches now lend laptops, tablets and even tools, which extends their mission far beyond printed books. These services reach people in every neighbourhood, including rural areas where bookstores and internet providers are rare. Staff members also help newcomers find housing information, language classes, local health services and legal advice nearby.\n\n" +
	"Libraries also serve as gathering places where neighbours meet, learn and share ideas across generations. Children attend reading programs, while older adults join technology classes that keep them connected to relatives and services. In addition, local groups use meeting rooms for clubs, tutoring and civic discussions that build trust between different parts of the community. Seasonal events such as author talks and craft fairs attract visitors who might never enter a government office. Such programs turn a simple building into a shared public space that belongs to everyone in town.\n\n" +
	"However, some critics claim that digital media has made physical libraries unnecessary in the modern world. This view ignores the residents who lack reliable devices, as well as the significant value of trained staff who curate information. Therefore, reducing library budgets would harm exactly those people who depend most on public resources and shared spaces.\n\n" +
	"In conclusion, public libraries remain essential institutions because they combine free information, expert support and welcoming community spaces. Cities that invest in them create a fundamental foundation for education, opportunity and civic life that benefits everyone. Ultimately, protecting library funding is a practical and fair choice for any community that values learning.\n"

// weakEssay is a single unpunctuated run of 64 repetitive words.
var weakEssay = "i think school is good and school is fun and i like school a lot because my friends are at school and we play at school every day and the teachers at school are nice and i think school is good for kids and kids like school and school helps kids learn things and i like to learn things at school with my friends"

// unpunctuatedEssay is 63 varied words with a leading capital, no punctuation
// and no paragraph breaks.
var unpunctuatedEssay = "Many students believe homework helps them remember lessons while others feel tired after long days in class and would rather spend evenings with family or friends playing sports reading novels or learning music so teachers might assign fewer tasks that focus on practice instead of repetition which could improve motivation and give young people more time to rest and explore hobbies outside school"

// sizedEssay returns ASCII sentences totalling exactly n characters. n must
// be well above the length of one sentence.
func sizedEssay(n int) string {
	const sentence = "Students learn best when lessons connect to their daily lives."
	var parts []string
	size := -1
	for size+1+len(sentence)+4 <= n {
		parts = append(parts, sentence)
		size += 1 + len(sentence)
	}
	text := strings.Join(parts, " ")
	pad := n - len(text) - 1
	return text + " " + strings.Repeat("x", pad-1) + "."
}
