package domain

// FollowUpCadence lists the standard follow-up day offsets in order.
var FollowUpCadence = [...]int{1, 3, 5, 7}

// FinalFollowUpDay is the terminal step of the cadence.
const FinalFollowUpDay = 7
