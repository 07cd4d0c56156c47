package http

var StatusFor = statusFor
