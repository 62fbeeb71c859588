package autohook

var ResetLoadGuard = resetLoadGuard
