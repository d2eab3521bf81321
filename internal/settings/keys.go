package settings

// System table keys.
const (
	TextAutoReplace   = "auto_replace"
	TextAutoCaps      = "auto_caps"
	TextAutoPunctuate = "auto_punctuate"
	TextShowPassword  = "show_password"

	StayOnWhilePluggedIn     = "stay_on_while_plugged_in"
	EndButtonBehavior        = "end_button_behavior"
	AirplaneModeOn           = "airplane_mode_on"
	AirplaneModeRadios       = "airplane_mode_radios"
	WifiSleepPolicy          = "wifi_sleep_policy"
	FontScale                = "font_scale"
	DimScreen                = "dim_screen"
	ScreenOffTimeout         = "screen_off_timeout"
	ScreenBrightness         = "screen_brightness"
	ScreenBrightnessMode     = "screen_brightness_mode"
	ModeRinger               = "mode_ringer"
	VibrateOn                = "vibrate_on"
	VolumeRing               = "volume_ring"
	VolumeMusic              = "volume_music"
	VolumeAlarm              = "volume_alarm"
	Ringtone                 = "ringtone"
	NotificationSound        = "notification_sound"
	AlarmAlert               = "alarm_alert"
	AutoTime                 = "auto_time"
	Time1224                 = "time_12_24"
	DateFormat               = "date_format"
	WindowAnimationScale     = "window_animation_scale"
	TransitionAnimationScale = "transition_animation_scale"
	AccelerometerRotation    = "accelerometer_rotation"
	DTMFToneWhenDialing      = "dtmf_tone"
	SoundEffectsEnabled      = "sound_effects_enabled"
	HapticFeedbackEnabled    = "haptic_feedback_enabled"
	ShowWebSuggestions       = "show_web_suggestions"
	NotificationLightPulse   = "notification_light_pulse"
)

// Secure table keys.
const (
	ADBEnabled                          = "adb_enabled"
	AndroidID                           = "android_id"
	BluetoothOn                         = "bluetooth_on"
	DataRoaming                         = "data_roaming"
	DefaultInputMethod                  = "default_input_method"
	EnabledInputMethods                 = "enabled_input_methods"
	DeviceProvisioned                   = "device_provisioned"
	HTTPProxy                           = "http_proxy"
	InstallNonMarketApps                = "install_non_market_apps"
	LocationProvidersAllowed            = "location_providers_allowed"
	LockPatternEnabled                  = "lock_pattern_autolock"
	LockPatternVisible                  = "lock_pattern_visible_pattern"
	LockPatternTactileFeedbackEnabled   = "lock_pattern_tactile_feedback_enabled"
	LoggingID                           = "logging_id"
	ParentalControlEnabled              = "parental_control_enabled"
	ParentalControlLastUpdate           = "parental_control_last_update"
	ParentalControlRedirectURL          = "parental_control_redirect_url"
	SettingsClassname                   = "settings_classname"
	USBMassStorageEnabled               = "usb_mass_storage_enabled"
	UseGoogleMail                       = "use_google_mail"
	WifiNetworksAvailableNotificationOn = "wifi_networks_available_notification_on"
	WifiNetworksAvailableRepeatDelay    = "wifi_networks_available_repeat_delay"
	WifiNumOpenNetworksKept             = "wifi_num_open_networks_kept"
	WifiOn                              = "wifi_on"
	WifiWatchdogAcceptablePacketLoss    = "wifi_watchdog_acceptable_packet_loss_percentage"
	WifiWatchdogAPCount                 = "wifi_watchdog_ap_count"
	WifiWatchdogBackgroundCheckDelayMS  = "wifi_watchdog_background_check_delay_ms"
	WifiWatchdogBackgroundCheckEnabled  = "wifi_watchdog_background_check_enabled"
	WifiWatchdogBackgroundCheckTimeout  = "wifi_watchdog_background_check_timeout_ms"
	WifiWatchdogInitialIgnoredPings     = "wifi_watchdog_initial_ignored_ping_count"
	WifiWatchdogMaxAPChecks             = "wifi_watchdog_max_ap_checks"
	WifiWatchdogOn                      = "wifi_watchdog_on"
	WifiWatchdogPingCount               = "wifi_watchdog_ping_count"
	WifiWatchdogPingDelayMS             = "wifi_watchdog_ping_delay_ms"
	WifiWatchdogPingTimeoutMS           = "wifi_watchdog_ping_timeout_ms"
	AccessibilityEnabled                = "accessibility_enabled"
	BackupEnabled                       = "backup_enabled"
	MobileData                          = "mobile_data"
	BackgroundData                      = "background_data"
)

// Global table keys.
const (
	WifiMaxDHCPRetryCount  = "wifi_max_dhcp_retry_count"
	WTFIsFatal             = "wtf_is_fatal"
	NITZUpdateSpacing      = "nitz_update_spacing"
	NITZUpdateDiff         = "nitz_update_diff"
	SetInstallLocation     = "set_install_location"
	DefaultInstallLocation = "default_install_location"
)

// MovedToSecure lists system keys now kept in the secure table.
var MovedToSecure = []string{
	ADBEnabled,
	AndroidID,
	BluetoothOn,
	DataRoaming,
	DeviceProvisioned,
	HTTPProxy,
	InstallNonMarketApps,
	LocationProvidersAllowed,
	LockPatternEnabled,
	LockPatternVisible,
	LockPatternTactileFeedbackEnabled,
	LoggingID,
	ParentalControlEnabled,
	ParentalControlLastUpdate,
	ParentalControlRedirectURL,
	SettingsClassname,
	USBMassStorageEnabled,
	UseGoogleMail,
	WifiNetworksAvailableNotificationOn,
	WifiNetworksAvailableRepeatDelay,
	WifiNumOpenNetworksKept,
	WifiOn,
	WifiWatchdogAcceptablePacketLoss,
	WifiWatchdogAPCount,
	WifiWatchdogBackgroundCheckDelayMS,
	WifiWatchdogBackgroundCheckEnabled,
	WifiWatchdogBackgroundCheckTimeout,
	WifiWatchdogInitialIgnoredPings,
	WifiWatchdogMaxAPChecks,
	WifiWatchdogOn,
	WifiWatchdogPingCount,
	WifiWatchdogPingDelayMS,
	WifiWatchdogPingTimeoutMS,
}

// MovedToGlobal lists system and secure keys now kept in the global table.
var MovedToGlobal = []string{
	AirplaneModeOn,
	AirplaneModeRadios,
	AutoTime,
	WifiSleepPolicy,
	ADBEnabled,
	BluetoothOn,
	DataRoaming,
	DeviceProvisioned,
	HTTPProxy,
	USBMassStorageEnabled,
	WifiOn,
	MobileData,
	WifiMaxDHCPRetryCount,
	WTFIsFatal,
	NITZUpdateSpacing,
	NITZUpdateDiff,
	SetInstallLocation,
	DefaultInstallLocation,
}

var (
	systemMoved = movedMap(MovedToGlobal, TableGlobal, movedMap(MovedToSecure, TableSecure, nil))
	secureMoved = movedMap(MovedToGlobal, TableGlobal, nil)
)

// movedMap adds keys → table to m. Later calls win, so the most recent
// destination of a key is used directly.
func movedMap(keys []string, table string, m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string, len(keys))
	}
	for _, k := range keys {
		m[k] = table
	}
	return m
}
