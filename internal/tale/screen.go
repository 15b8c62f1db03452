package tale

// Screen identifies one view of the presentation layer. The set is
// closed; navigation is a directed graph over these values, not a stack.
type Screen string

const (
	ScreenSplash       Screen = "splash"
	ScreenOnboarding   Screen = "onboarding"
	ScreenAuth         Screen = "auth"
	ScreenVerify       Screen = "verify"
	ScreenHome         Screen = "home"
	ScreenChildren     Screen = "children-list"
	ScreenChildCreate  Screen = "child-create"
	ScreenChildEdit    Screen = "child-edit"
	ScreenStoryCreate  Screen = "story-create"
	ScreenStoryResult  Screen = "story-result"
	ScreenLibrary      Screen = "stories-library"
	ScreenStoryReader  Screen = "story-reader"
	ScreenSettings     Screen = "settings"
	ScreenPlans        Screen = "subscription-plans"
	ScreenCheckout     Screen = "checkout"
	ScreenSubscription Screen = "subscription-status"
)

var allScreens = map[Screen]bool{
	ScreenSplash:       true,
	ScreenOnboarding:   true,
	ScreenAuth:         true,
	ScreenVerify:       true,
	ScreenHome:         true,
	ScreenChildren:     true,
	ScreenChildCreate:  true,
	ScreenChildEdit:    true,
	ScreenStoryCreate:  true,
	ScreenStoryResult:  true,
	ScreenLibrary:      true,
	ScreenStoryReader:  true,
	ScreenSettings:     true,
	ScreenPlans:        true,
	ScreenCheckout:     true,
	ScreenSubscription: true,
}

// Valid reports whether s is a member of the closed screen set.
func (s Screen) Valid() bool { return allScreens[s] }

// backTargets maps each screen to its fixed back destination. Targets
// are per-screen constants regardless of how the screen was entered;
// screens without a back edge map to themselves.
var backTargets = map[Screen]Screen{
	ScreenVerify:       ScreenAuth,
	ScreenChildren:     ScreenHome,
	ScreenChildCreate:  ScreenChildren,
	ScreenChildEdit:    ScreenChildren,
	ScreenStoryCreate:  ScreenHome,
	ScreenStoryResult:  ScreenStoryCreate,
	ScreenLibrary:      ScreenHome,
	ScreenStoryReader:  ScreenLibrary,
	ScreenSettings:     ScreenHome,
	ScreenPlans:        ScreenSettings,
	ScreenCheckout:     ScreenPlans,
	ScreenSubscription: ScreenSettings,
}

// BackTarget returns the back destination for s. Screens with no back
// edge (splash, onboarding, auth, home) return themselves.
func BackTarget(s Screen) Screen {
	if t, ok := backTargets[s]; ok {
		return t
	}
	return s
}
