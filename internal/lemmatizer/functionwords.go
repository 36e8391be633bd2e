package lemmatizer

// Function-word lists, grouped by part of speech. Content words that happen
// to collide with these spellings are lost; that is the accepted trade-off
// of a dictionary-free filter.

var englishFunctionWords = []string{
	// Articles
	"a", "an", "the",

	// Pronouns
	"i", "me", "my", "mine", "myself", "we", "us", "our", "ours", "ourselves",
	"you", "your", "yours", "yourself", "yourselves",
	"he", "him", "his", "himself", "she", "her", "hers", "herself",
	"it", "its", "itself", "they", "them", "their", "theirs", "themselves",
	"this", "that", "these", "those",
	"who", "whom", "whose", "which", "what",

	// Prepositions
	"of", "at", "by", "for", "with", "about", "against", "between", "among",
	"into", "through", "during", "before", "after", "above", "below",
	"to", "from", "up", "down", "in", "out", "on", "off", "over", "under",

	// Conjunctions
	"and", "or", "but", "if", "while", "because", "as", "until",
	"than", "so", "nor", "yet", "although", "though", "unless", "whereas",

	// Particles
	"not", "no",

	// Interjections
	"oh", "ah", "hey", "wow", "ouch", "alas", "hmm",
}

var russianFunctionWords = []string{
	// Предлоги
	"в", "во", "на", "с", "со", "по", "к", "ко", "у", "о", "об", "обо",
	"от", "ото", "до", "из", "изо", "за", "под", "подо", "над", "при",
	"про", "для", "без", "безо", "через", "между", "перед", "передо",
	"около", "возле", "вдоль", "сквозь", "среди", "ради", "кроме",

	// Союзы
	"и", "а", "но", "или", "либо", "что", "чтобы", "как", "если", "то",
	"зато", "однако", "хотя", "хоть", "пока", "когда", "потому", "поэтому",
	"также", "тоже", "причем", "притом", "будто", "словно", "ибо",

	// Частицы
	"не", "ни", "бы", "б", "же", "ж", "ли", "ль", "ведь", "вот", "вон",
	"уж", "лишь", "только", "даже", "разве", "неужели", "пусть", "пускай",
	"да", "нет",

	// Местоимения
	"я", "ты", "он", "она", "оно", "мы", "вы", "они",
	"меня", "тебя", "его", "ее", "нас", "вас", "их",
	"мне", "тебе", "ему", "ей", "нам", "вам", "им",
	"мной", "тобой", "им", "ей", "нами", "вами", "ими",
	"мой", "твой", "наш", "ваш", "свой", "себя", "себе", "собой",
	"этот", "эта", "это", "эти", "тот", "та", "те",
	"такой", "таков", "сей", "который", "кто", "кого", "кому", "чей",
	"весь", "вся", "все", "всех", "всем", "сам", "сама", "само", "сами",

	// Междометия
	"ах", "ох", "эх", "ой", "ай", "увы", "ура", "эй", "ого",
}
