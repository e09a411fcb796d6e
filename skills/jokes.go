package skills

// Canned joke pool. Picked uniformly at random by the joke skill.
var jokes = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"I told my computer I needed a break, and now it won't stop sending me beach wallpapers.",
	"Why did the developer go broke? Because they used up all their cache.",
	"There are only 10 kinds of people in this world: those who know binary and those who don't.",
	"A SQL query walks into a bar, walks up to two tables, and asks: can I join you?",
	"Why do Java developers wear glasses? Because they don't C sharp.",
	"I would tell you a UDP joke, but you might not get it.",
	"How many programmers does it take to change a light bulb? None, that's a hardware problem.",
	"Why was the function sad after a breakup? It couldn't find closure.",
	"What is a programmer's favourite place? The foo bar.",
}
