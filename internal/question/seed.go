package question

import "github.com/quizroom/quizroom/internal/domain"

// seedQuestions is the default pool inserted when the table is empty,
// so a fresh deployment is playable immediately.
var seedQuestions = []domain.Question{
	{
		Prompt:        "What is the capital of France?",
		Options:       [4]string{"Paris", "Lyon", "Marseille", "Toulouse"},
		CorrectOption: 1,
	},
	{
		Prompt:        "How many planets are in the solar system?",
		Options:       [4]string{"7", "8", "9", "10"},
		CorrectOption: 2,
	},
	{
		Prompt:        "Who painted the Mona Lisa?",
		Options:       [4]string{"Picasso", "Van Gogh", "Leonardo da Vinci", "Michelangelo"},
		CorrectOption: 3,
	},
	{
		Prompt:        "What is the largest ocean in the world?",
		Options:       [4]string{"Atlantic", "Indian", "Arctic", "Pacific"},
		CorrectOption: 4,
	},
	{
		Prompt:        "In which year did humans first walk on the Moon?",
		Options:       [4]string{"1965", "1969", "1972", "1975"},
		CorrectOption: 2,
	},
	{
		Prompt:        "Which language has the most native speakers?",
		Options:       [4]string{"English", "Spanish", "Mandarin", "Hindi"},
		CorrectOption: 3,
	},
	{
		Prompt:        "How many continents are there on Earth?",
		Options:       [4]string{"5", "6", "7", "8"},
		CorrectOption: 3,
	},
	{
		Prompt:        "Which chemical element has the symbol 'O'?",
		Options:       [4]string{"Gold", "Oxygen", "Osmium", "Ozone"},
		CorrectOption: 2,
	},
	{
		Prompt:        "Who wrote 'Les Miserables'?",
		Options:       [4]string{"Emile Zola", "Victor Hugo", "Alexandre Dumas", "Gustave Flaubert"},
		CorrectOption: 2,
	},
	{
		Prompt:        "What is the approximate speed of light in a vacuum?",
		Options:       [4]string{"300,000 km/s", "150,000 km/s", "500,000 km/s", "1,000,000 km/s"},
		CorrectOption: 1,
	},
	{
		Prompt:        "How many players are on a football team?",
		Options:       [4]string{"9", "10", "11", "12"},
		CorrectOption: 3,
	},
	{
		Prompt:        "What currency is used in Japan?",
		Options:       [4]string{"Yuan", "Won", "Yen", "Baht"},
		CorrectOption: 3,
	},
	{
		Prompt:        "What is the smallest country in the world?",
		Options:       [4]string{"Monaco", "Vatican City", "San Marino", "Liechtenstein"},
		CorrectOption: 2,
	},
	{
		Prompt:        "How many sides does a hexagon have?",
		Options:       [4]string{"4", "5", "6", "7"},
		CorrectOption: 3,
	},
	{
		Prompt:        "What is the highest mountain in the world?",
		Options:       [4]string{"K2", "Mont Blanc", "Everest", "Kilimanjaro"},
		CorrectOption: 3,
	},
}
