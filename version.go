package stepflow

// Version is the release version of the stepflow module.
const Version = "0.2.0"
