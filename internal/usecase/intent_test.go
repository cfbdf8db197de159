package usecase

import "testing"

func TestIntentToEndCall(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want bool
	}{
		{"Okay, hanging up now!", true},
		{"I'm going to hang up, take care.", true},
		{"I will end the call here.", true},
		{"Goodbye, talk to you later!", true},
		{"Take care, bye bye.", true},
		{"See you soon, goodbye.", true},
		{"Goodbye!", true},
		{"bye bye~", true},
		{"GOODBYE, TALK LATER", true},

		{"", false},
		{"Goodbye is such a heavy word in that song.", false},
		{"I said goodbye to him yesterday. Anyway, how was work?", false},
		{"We can talk later about the hang up between those teams.", false},
		{"Don't hang up yet, I have one more thing.", false},
		{"See you at the meeting tomorrow.", false},
	}

	for _, tc := range cases {
		if got := IntentToEndCall(tc.text); got != tc.want {
			t.Errorf("IntentToEndCall(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
