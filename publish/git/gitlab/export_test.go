package gitlab

var NewMergeRequestOptionsForTest = newMergeRequestOptions
