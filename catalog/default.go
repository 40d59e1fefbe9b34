package catalog

import "github.com/mbolis/national-dialog/model"

const (
	RetailFormIndex  = 0
	defaultPollTitle = "Popular Retail Establishments (Poll)"
)

func text(prompt string) model.Question {
	return model.Question{Prompt: prompt, Kind: model.KindText}
}

func choice(prompt string, choices ...string) model.Question {
	return model.Question{Prompt: prompt, Kind: model.KindSelect, Choices: choices}
}

func file(prompt string) model.Question {
	return model.Question{Prompt: prompt, Kind: model.KindFile}
}

// Default is the built-in catalog. The first question of the Retail Experience
// form feeds the poll.
func Default() Catalog {
	return Catalog{
		Forms: []model.FormDefinition{
			{
				Title: "Retail Experience",
				Questions: []model.Question{
					text("Which retail stores do you visit most often?"),
					choice("How satisfied are you with the cleanliness and security of these stores?",
						"Very Satisfied", "Satisfied", "Neutral", "Dissatisfied", "Very Dissatisfied"),
					choice("What do you value most: price, quality, or convenience?",
						"Price", "Quality", "Convenience"),
					text("Any suggestions for improvement?"),
				},
			},
			{
				Title: "Public Services",
				Questions: []model.Question{
					text("Which public services do you use most (e.g., transport, clinics, libraries)?"),
					choice("How would you rate their quality?",
						"Excellent", "Good", "Average", "Poor", "Very Poor"),
					text("What is the biggest challenge you face with public services?"),
					text("What improvement would you like to see?"),
				},
			},
			{
				Title: "Shopping Preferences",
				Questions: []model.Question{
					text("Do you prefer shopping online or in-store? Why?"),
					text("What factors influence your choice of shopping location?"),
					text("Which brands or stores do you trust most?"),
					choice("How important are sales and promotions to you?",
						"Very Important", "Somewhat Important", "Not Important"),
				},
			},
			{
				Title: "Favorite Places & Experiences",
				Questions: []model.Question{
					text("What is your favorite place in South Africa?"),
					text("Why do you like it?"),
					file("Upload an image of this place (optional)"),
					text("Leave a comment about your experience"),
				},
			},
		},
		Poll: PollSource{
			Title:    defaultPollTitle,
			Form:     RetailFormIndex,
			Question: 0,
		},
	}
}
