package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Select runs the file picker and returns the chosen file name, or an empty
// string when the user quits without choosing.
func Select() string {
	fileSelector := CreateFileSelector()
	model, err := tea.NewProgram(fileSelector).StartReturningModel()
	if err != nil {
		panic(err)
	}
	result, ok := model.(FileSelector)
	if !ok {
		return ""
	}
	return result.Selected
}
