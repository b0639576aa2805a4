// internal/agent/prompts.go
package agent

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/courtpilot/internal/action"
)

// ObserverPrompt asks a vision model to describe the page and every element
// carrying a hint label.
func ObserverPrompt() string {
	return `I give you a screenshot of a part of a webpage. Your first task is to describe what you see on the webpage in bullet points.

Your second task is to describe each clickable UI element and make a guess about what page it likely navigates to. In the screenshot, yellow boxes are placed on top of clickable UI elements. And each yellow box contains one or two letters that uniquely identify the UI element.

Answer in the following format:

Description of the webpage:
* ...
Description of clickable UI elements:
* "<letter>" (Home): Likely navigates to the home page of the website.
* ...
`
}

// ActorPrompt builds the free-text prompt: the task, the tool listing, the
// page description and the reply format the parser expects.
func ActorPrompt(description, task string, catalog *action.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an assistant that helps a user to solve a task. The task provided by the user is the following:\n%s\n\n", task)
	b.WriteString("You can choose from one of the following actions to progress with the task. ")
	b.WriteString("Here are the names and descriptions of the actions you can take:\n\n")
	b.WriteString(catalog.Render())
	b.WriteString("\n\nAs input, you are given an image of the current webpage, a description of the webpage, ")
	b.WriteString("a description of all clickable UI elements on the webpage, ")
	b.WriteString("and information about whether you can scroll down further on the webpage.\n\n")
	b.WriteString(description)
	b.WriteString("\n\nYou need to respond in the following format:\n\n")
	b.WriteString("Thought: Your reasoning behind the action you are taking.\n")
	fmt.Fprintf(&b, "Action: Your chosen action, should be one of %s. Only provide the action.\n", strings.Join(catalog.Names(), ", "))
	return b.String()
}

// ToolCallSystemPrompt frames the structured mode, where the actor answers by
// calling one tool per turn.
func ToolCallSystemPrompt(task string) string {
	return fmt.Sprintf(`You are an assistant that helps the user solve a task by navigating a website and searching for relevant information on it.

The task is the following:
%s

You navigate the website by calling exactly one tool per turn, for example to click, scroll or type. Clickable UI elements are marked by small yellow boxes with letters inside. Refer to the UI elements by using those letters.

When you can answer the task with the information gathered, call the ANSWER tool, or write your final answer inside <ANSWER></ANSWER> tags.`, task)
}

// ToolCallUserPrompt carries the page description in structured mode.
func ToolCallUserPrompt(description string) string {
	return "The image shows the current webpage.\n\n" + description + "\n\nCall the tool that makes the most progress on the task."
}

// TablePrompt asks a vision model to pull the structured data described by
// instructions out of the screenshot.
func TablePrompt(instructions string) string {
	return fmt.Sprintf(`You are given an image of a webpage. The user wants to extract information from the webpage that is relevant to solving the following task:
Task: %s

First, describe and summarize what is in the image. If there is structured data, such as tables, timetables, or grids, provide a brief summary about what information they contain.

Second, think about whether there is structured data (for example, tables or timetables) that contain relevant information for the user's task. If so, extract the data in a structured markdown format. If a cell looks empty or you are unsure about the cell's content, write 'NOT AVAILABLE' in the cell.
`, instructions)
}

// LocatorPrompt asks for the grid cell over the described element.
func LocatorPrompt(target string) string {
	return fmt.Sprintf(`You want to navigate to the following location on the image: %s
The provided image is overlayed with a grid. Describe briefly in 2 sentences what you see on the image.
Identify the grid cell and grid cell number that corresponds to the target location.
Explain what cell you choose and why. Return the number on the corresponding grid cell at the end of your reasoning in the format: RESULT: <number>.
If you are not sure, return the number 0.`, target)
}
