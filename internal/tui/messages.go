package tui

import (
	"github.com/SBrookhart/side-quest-generator/internal/quest"
)

type dayLoadedMsg struct {
	date  string
	ideas []quest.Idea
}

type dayMissingMsg struct {
	date string
}

type loadErrMsg struct {
	err error
}

type openErrMsg struct {
	err error
}
