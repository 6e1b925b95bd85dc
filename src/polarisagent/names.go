package polarisagent

import (
	"math/rand/v2"
	"strings"
)

var (
	nameAdjectives = []string{
		"agile", "bold", "brave", "bright", "calm", "clever", "cosmic", "crisp", "curious", "daring",
		"eager", "fancy", "gentle", "giant", "happy", "humble", "jolly", "keen", "lively", "lucky",
		"mellow", "mighty", "nimble", "noble", "patient", "proud", "quiet", "rapid", "shy", "silent",
		"sleepy", "smooth", "steady", "swift", "tidy", "vivid", "warm", "wild", "wise", "zealous",
	}
	nameColors = []string{
		"amber", "aqua", "azure", "beige", "black", "blue", "bronze", "coral", "crimson", "cyan",
		"emerald", "gold", "gray", "green", "indigo", "ivory", "jade", "lavender", "lime", "magenta",
		"maroon", "navy", "olive", "orange", "peach", "pink", "plum", "purple", "red", "rose",
		"ruby", "salmon", "silver", "tan", "teal", "turquoise", "violet", "white", "yellow",
	}
	nameAnimals = []string{
		"albatross", "badger", "beaver", "bison", "cheetah", "cobra", "crane", "dolphin", "eagle", "falcon",
		"ferret", "gecko", "gorilla", "hawk", "hedgehog", "heron", "ibis", "jaguar", "koala", "lemur",
		"lynx", "marmot", "moose", "narwhal", "ocelot", "otter", "panda", "parrot", "penguin", "puma",
		"rabbit", "raven", "salmon", "seal", "sparrow", "tiger", "toucan", "walrus", "wombat", "zebra",
	}
)

// ProjectName returns a random adjective-color-animal name.
func ProjectName() string {
	return strings.Join([]string{pick(nameAdjectives), pick(nameColors), pick(nameAnimals)}, "-")
}

func pick(words []string) string {
	return words[rand.IntN(len(words))]
}
