// Package wizard drives a new scoring submission from file choice to job
// creation.
//
// The Wizard moves through AwaitingFile, FileChosen, Uploading, Uploaded,
// SubmittingJob and Submitted. The chosen file's name, size and type are
// mirrored into the store; its bytes stay in the FileHandle until upload.
// Book details can only be edited once the upload has succeeded, and a job
// can only be submitted with the file triple that upload returned.
package wizard
